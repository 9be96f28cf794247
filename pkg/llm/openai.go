package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIOracle calls an OpenAI-compatible chat endpoint. The configured model
// is expected to search on its own (e.g. gpt-4o-search-preview); its answer
// comes back as a single text block.
type OpenAIOracle struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

var _ Oracle = (*OpenAIOracle)(nil)

// NewOpenAIOracle creates an oracle backed by an OpenAI-compatible endpoint.
func NewOpenAIOracle(cfg *Config, logger *zap.Logger) (*OpenAIOracle, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIOracle{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("oracle.openai"),
	}, nil
}

// Search implements Oracle.
func (o *OpenAIOracle) Search(ctx context.Context, prompt string) ([]Block, error) {
	o.logger.Debug("Oracle request",
		zap.String("model", o.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		o.logger.Error("Oracle request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(ErrorTypeResponse, "no choices in response", false, nil)
	}

	o.logger.Info("Oracle request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return []Block{{Type: BlockTypeText, Text: resp.Choices[0].Message.Content}}, nil
}

// Model implements Oracle.
func (o *OpenAIOracle) Model() string {
	return o.model
}
