package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies oracle failures.
type ErrorType string

const (
	ErrorTypeEndpoint  ErrorType = "endpoint"
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeModel     ErrorType = "model"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeResponse  ErrorType = "response"
	ErrorTypeCircuit   ErrorType = "circuit_open"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error represents a structured oracle error with classification.
type Error struct {
	Type       ErrorType
	Message    string // Human-readable message
	Retryable  bool   // Whether the operation can be retried
	Cause      error  // Underlying error
	StatusCode int    // HTTP status code if applicable
	// ProviderMessage is the message the provider returned, if any.
	ProviderMessage string
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// Detail returns the provider's own message when there is one, else the classified message.
func (e *Error) Detail() string {
	if e.ProviderMessage != "" {
		return e.ProviderMessage
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// NewError creates a new structured oracle error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an error and returns a structured Error.
// Typed provider errors are inspected first; anything else falls back to
// matching the error text.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	var anthropicErr *anthropic.APIError
	if errors.As(err, &anthropicErr) {
		e := classifyAnthropic(string(anthropicErr.Type), err)
		e.ProviderMessage = anthropicErr.Message
		return e
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		e := classifyStatus(openaiErr.HTTPStatusCode, err)
		e.ProviderMessage = openaiErr.Message
		return e
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	return classifyText(err)
}

func classifyAnthropic(errType string, err error) *Error {
	switch errType {
	case "authentication_error", "permission_error":
		return NewError(ErrorTypeAuth, "authentication failed", false, err)
	case "not_found_error":
		return NewError(ErrorTypeModel, "model or endpoint not found", false, err)
	case "rate_limit_error":
		return NewError(ErrorTypeRateLimit, "rate limited", true, err)
	case "overloaded_error", "api_error":
		return NewError(ErrorTypeEndpoint, "provider unavailable", true, err)
	case "invalid_request_error":
		return NewError(ErrorTypeUnknown, "invalid request", false, err)
	}
	return NewError(ErrorTypeUnknown, "oracle error", false, err)
}

func classifyStatus(status int, err error) *Error {
	var e *Error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e = NewError(ErrorTypeAuth, "authentication failed", false, err)
	case status == http.StatusNotFound:
		e = NewError(ErrorTypeModel, "model or endpoint not found", false, err)
	case status == http.StatusTooManyRequests:
		e = NewError(ErrorTypeRateLimit, "rate limited", true, err)
	case status >= 500:
		e = NewError(ErrorTypeEndpoint, "server error", true, err)
	default:
		e = NewError(ErrorTypeUnknown, "oracle error", false, err)
	}
	e.StatusCode = status
	return e
}

func classifyText(err error) *Error {
	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504, 529} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	var e *Error
	switch {
	case errors.Is(err, context.Canceled):
		e = NewError(ErrorTypeEndpoint, "request canceled", false, err)
	case statusCode == 401 || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		e = NewError(ErrorTypeAuth, "authentication failed", false, err)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		e = NewError(ErrorTypeEndpoint, "connection failed", true, err)
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(lower, "timeout"):
		e = NewError(ErrorTypeEndpoint, "request timeout", true, err)
	case statusCode == 429 || strings.Contains(lower, "rate limit"):
		e = NewError(ErrorTypeRateLimit, "rate limited", true, err)
	case statusCode >= 500:
		e = NewError(ErrorTypeEndpoint, "server error", true, err)
	default:
		e = NewError(ErrorTypeUnknown, "oracle error", false, err)
	}
	e.StatusCode = statusCode
	return e
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
