package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/infrastructure/llm"
	"PortfolioCMS/internal/ports"
)

// Factory builds a text generator from configuration.
type Factory func(ctx context.Context, cfg config.GeneratorConfig, logger *slog.Logger) (ports.TextGenerator, error)

// Registry keeps a mapping from provider names to generator factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Default returns a registry with the Gemini and OpenAI providers.
func Default() *Registry {
	r := NewRegistry()
	r.Register(config.ProviderGemini, func(ctx context.Context, cfg config.GeneratorConfig, logger *slog.Logger) (ports.TextGenerator, error) {
		return llm.NewGeminiGenerator(ctx, cfg, logger)
	})
	r.Register(config.ProviderOpenAI, func(_ context.Context, cfg config.GeneratorConfig, logger *slog.Logger) (ports.TextGenerator, error) {
		return llm.NewOpenAIGenerator(cfg, logger)
	})
	return r
}

// Register adds or replaces a provider factory.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Names lists registered providers in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves cfg.Provider and constructs the generator.
func (r *Registry) Build(ctx context.Context, cfg config.GeneratorConfig, logger *slog.Logger) (ports.TextGenerator, error) {
	factory, ok := r.factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("generator provider %s is not registered (available: %s)", cfg.Provider, strings.Join(r.Names(), ", "))
	}
	gen, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build %s generator: %w", cfg.Provider, err)
	}
	return gen, nil
}
