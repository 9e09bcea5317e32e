package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/config"
)

// AnthropicRuntime runs prompts through the Anthropic Messages API
type AnthropicRuntime struct {
	logger    *slog.Logger
	client    anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicRuntime(logger *slog.Logger, modelConfig *config.ModelConfig) (abstractions.Runtime, error) {
	if modelConfig == nil {
		return nil, errors.New("model configuration is required")
	}
	if modelConfig.APIKey == "" {
		return nil, errors.New("the anthropic runtime requires an API key, set ANTHROPIC_API_KEY")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(modelConfig.APIKey),
		option.WithMaxRetries(modelConfig.MaxRetries),
	}
	if modelConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(modelConfig.BaseURL))
	}
	if modelConfig.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(modelConfig.Timeout))
	}

	return &AnthropicRuntime{
		logger:    logger,
		client:    anthropic.NewClient(opts...),
		model:     modelConfig.Name,
		maxTokens: modelConfig.MaxTokens,
	}, nil
}

func (r *AnthropicRuntime) WithLogger(logger *slog.Logger) abstractions.Runtime {
	c := *r
	c.logger = logger
	return &c
}

func (r *AnthropicRuntime) Name() string {
	return "anthropic"
}

func (r *AnthropicRuntime) Generate(ctx context.Context, prompt abstractions.Prompt) (string, error) {
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = r.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.System}}
	}

	message, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	r.logger.Debug("Anthropic response received",
		"model", r.model,
		"stop_reason", message.StopReason,
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens,
	)
	return sb.String(), nil
}
