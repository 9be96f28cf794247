package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed means calls flow through to the provider.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the provider failed too often and calls are refused.
	CircuitOpen
	// CircuitHalfOpen means one trial call is in flight after the reset period.
	CircuitHalfOpen
)

// String returns a human-readable string for the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker trips open after N consecutive failures and lets a single
// trial call through once the reset period has passed. It never retries a call.
type CircuitBreaker struct {
	mu               sync.Mutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
	now              func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(threshold int, resetAfter time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  threshold,
		resetAfter: resetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return NewError(ErrorTypeCircuit,
			fmt.Sprintf("oracle provider appears to be down (failed %d times in a row)", cb.consecutiveFails),
			false, nil)
	default:
		return NewError(ErrorTypeCircuit, "oracle provider recovery call in flight", false, nil)
	}
}

// RecordSuccess resets the failure count and closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	cb.state = CircuitClosed
}

// RecordFailure counts a failure and trips the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	if cb.state == CircuitHalfOpen || cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// ReleaseTrial reopens a half-open circuit whose trial call ended without a
// verdict on the provider. The last failure time is kept, so the next Allow
// after the reset period lets another call through.
func (cb *CircuitBreaker) ReleaseTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// breakerOracle guards an Oracle with a CircuitBreaker.
type breakerOracle struct {
	inner   Oracle
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// WithCircuitBreaker wraps an oracle so that repeated provider failures are
// refused locally until the reset period passes.
func WithCircuitBreaker(inner Oracle, breaker *CircuitBreaker, logger *zap.Logger) Oracle {
	return &breakerOracle{inner: inner, breaker: breaker, logger: logger.Named("oracle.breaker")}
}

func (b *breakerOracle) Search(ctx context.Context, prompt string) ([]Block, error) {
	if err := b.breaker.Allow(); err != nil {
		b.logger.Warn("Oracle call refused", zap.String("state", b.breaker.State().String()))
		return nil, err
	}

	blocks, err := b.inner.Search(ctx, prompt)
	if err != nil {
		if callerCancelled(ctx, err) {
			b.breaker.ReleaseTrial()
			return nil, err
		}
		b.breaker.RecordFailure()
		return nil, err
	}

	b.breaker.RecordSuccess()
	return blocks, nil
}

// callerCancelled reports whether the call ended because the caller gave up.
// An expired deadline is the refresh timeout and counts against the provider.
func callerCancelled(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

func (b *breakerOracle) Model() string {
	return b.inner.Model()
}
