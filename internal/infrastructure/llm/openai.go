package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIGenerator implements ports.TextGenerator backed by OpenAI-compatible APIs.
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	systemPrompt string
	limiter      *rate.Limiter
	logger       *slog.Logger
}

var _ ports.PersonaGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a generator from configuration. Endpoint, when
// set, replaces the default API base URL.
func NewOpenAIGenerator(cfg config.GeneratorConfig, logger *slog.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = defaultOpenAIModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}

	return &OpenAIGenerator{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		limiter:      newLimiter(cfg.RequestsPerMinute),
		logger:       logger.With("component", "openai", "model", model),
	}, nil
}

// Generate sends the prompt as a single user message and returns the reply text.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return "", fmt.Errorf("openai throttle: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", domain.ErrEmptyGeneration)
	}
	g.logger.Debug("completion received", "finish_reason", resp.Choices[0].FinishReason, "tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// WithSystemPrompt returns a copy that shares the client and the limiter.
func (g *OpenAIGenerator) WithSystemPrompt(prompt string) ports.TextGenerator {
	clone := *g
	clone.systemPrompt = safePrompt(prompt)
	return &clone
}
