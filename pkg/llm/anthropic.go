package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// Anthropic server tool that lets the model run web searches.
const (
	webSearchToolName = "web_search"
	webSearchToolType = "web_search_20250305"
)

// AnthropicOracle calls the Anthropic Messages API with the web search tool declared.
type AnthropicOracle struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

var _ Oracle = (*AnthropicOracle)(nil)

// NewAnthropicOracle creates an oracle backed by the Anthropic Messages API.
func NewAnthropicOracle(cfg *Config, logger *zap.Logger) (*AnthropicOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Transport: newToolResultTransport(nil)}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicOracle{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("oracle.anthropic"),
	}, nil
}

// Search implements Oracle.
func (o *AnthropicOracle) Search(ctx context.Context, prompt string) ([]Block, error) {
	o.logger.Debug("Oracle request",
		zap.String("model", o.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("max_tokens", o.maxTokens))

	start := time.Now()

	resp, err := o.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
		Tools: []anthropic.ToolDefinition{
			{Name: webSearchToolName, Type: webSearchToolType},
		},
	})
	if err != nil {
		o.logger.Error("Oracle request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, ClassifyError(err)
	}

	blocks := make([]Block, 0, len(resp.Content))
	for _, c := range resp.Content {
		b := Block{Type: string(c.Type)}
		if c.Text != nil {
			b.Text = *c.Text
		}
		blocks = append(blocks, b)
	}

	o.logger.Info("Oracle request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Int("blocks", len(blocks)),
		zap.String("stop_reason", string(resp.StopReason)),
		zap.Duration("elapsed", time.Since(start)))

	return blocks, nil
}

// Model implements Oracle.
func (o *AnthropicOracle) Model() string {
	return o.model
}
