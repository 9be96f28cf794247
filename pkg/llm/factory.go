package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/config"
)

// Provider names accepted in oracle.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds what an oracle client needs to reach its provider.
type Config struct {
	BaseURL   string // Optional; provider default when empty
	Model     string
	MaxTokens int
	APIKey    string
}

// NewOracle builds the oracle selected by cfg.Provider, wrapped in a circuit
// breaker when BreakerThreshold is positive.
func NewOracle(cfg *config.OracleConfig, logger *zap.Logger) (Oracle, error) {
	clientCfg := &Config{
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		APIKey:    cfg.APIKey(),
	}

	var (
		oracle Oracle
		err    error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		oracle, err = NewAnthropicOracle(clientCfg, logger)
	case ProviderOpenAI:
		oracle, err = NewOpenAIOracle(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s oracle: %w", cfg.Provider, err)
	}

	if cfg.BreakerThreshold > 0 {
		oracle = WithCircuitBreaker(oracle, NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerReset), logger)
	}
	return oracle, nil
}
