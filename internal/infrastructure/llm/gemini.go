package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator implements ports.TextGenerator on the Gemini API.
type GeminiGenerator struct {
	client       *genai.Client
	model        string
	systemPrompt string
	limiter      *rate.Limiter
	logger       *slog.Logger
}

var _ ports.PersonaGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator builds a generator from configuration.
func NewGeminiGenerator(ctx context.Context, cfg config.GeneratorConfig, logger *slog.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:       client,
		model:        model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		limiter:      newLimiter(cfg.RequestsPerMinute),
		logger:       logger.With("component", "gemini", "model", model),
	}, nil
}

// Generate runs a single-turn content generation and returns the reply text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return "", fmt.Errorf("gemini throttle: %w", err)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w", domain.ErrEmptyGeneration)
	}
	g.logger.Debug("content received", "finish_reason", result.Candidates[0].FinishReason)
	return result.Text(), nil
}

// WithSystemPrompt returns a copy that shares the client and the limiter.
func (g *GeminiGenerator) WithSystemPrompt(prompt string) ports.TextGenerator {
	clone := *g
	clone.systemPrompt = safePrompt(prompt)
	return &clone
}
