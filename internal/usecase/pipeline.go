package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/metrics"
	"PortfolioCMS/internal/ports"
	"PortfolioCMS/internal/topics"
)

const maxSlugAttempts = 50

// ArticleComposer produces unsaved article payloads.
type ArticleComposer interface {
	Compose(ctx context.Context, idea topics.Idea) (domain.NewArticle, error)
	ComposeRandom(ctx context.Context) (domain.NewArticle, error)
}

// PipelineDeps wires the driven adapters used to produce one article.
type PipelineDeps struct {
	Composer ArticleComposer
	Articles ports.ArticleStore
	Index    ports.ArticleIndex
	Notifier ports.Notifier
	Metrics  *metrics.Metrics
	Clock    Clock
	Logger   *slog.Logger
}

// Pipeline runs compose, persist, index and notify for a single article.
type Pipeline struct {
	composer ArticleComposer
	articles ports.ArticleStore
	index    ports.ArticleIndex
	notifier ports.Notifier
	metrics  *metrics.Metrics
	clock    Clock
	logger   *slog.Logger
}

// NewPipeline constructs the generation pipeline.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{
		composer: deps.Composer,
		articles: deps.Articles,
		index:    deps.Index,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
}

// GenerationRequest describes one article to produce.
type GenerationRequest struct {
	// Idea is optional; a random catalog topic is used when nil.
	Idea *topics.Idea
	// PublishAt publishes the article at the given instant. Nil keeps it a draft.
	PublishAt *time.Time
	Trigger   string
}

// Produce composes and stores one article.
func (p *Pipeline) Produce(ctx context.Context, req GenerationRequest) (_ domain.Article, err error) {
	if p.composer == nil || p.articles == nil {
		return domain.Article{}, errors.New("generation pipeline is not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			p.metrics.GenerationFailures.WithLabelValues(req.Trigger).Inc()
			err = fmt.Errorf("article generation panicked: %v", r)
		}
	}()

	started := p.clock.Now()
	var payload domain.NewArticle
	if req.Idea != nil {
		payload, err = p.composer.Compose(ctx, *req.Idea)
	} else {
		payload, err = p.composer.ComposeRandom(ctx)
	}
	p.metrics.GenerationLatency.WithLabelValues(req.Trigger).Observe(p.clock.Now().Sub(started).Seconds())
	if err != nil {
		p.metrics.GenerationFailures.WithLabelValues(req.Trigger).Inc()
		return domain.Article{}, err
	}

	if req.PublishAt != nil {
		payload.Publish(*req.PublishAt)
	}

	payload.Slug, err = p.uniqueSlug(ctx, payload.Slug)
	if err != nil {
		p.metrics.GenerationFailures.WithLabelValues(req.Trigger).Inc()
		return domain.Article{}, err
	}

	article, err := p.articles.CreateArticle(ctx, payload)
	if err != nil {
		p.metrics.GenerationFailures.WithLabelValues(req.Trigger).Inc()
		return domain.Article{}, fmt.Errorf("persist article %q: %w", payload.Title, err)
	}
	p.metrics.ArticlesGenerated.WithLabelValues(req.Trigger).Inc()

	if article.Published {
		p.announce(ctx, article)
	}
	return article, nil
}

// announce is best effort: the article is already stored.
func (p *Pipeline) announce(ctx context.Context, article domain.Article) {
	if p.index != nil {
		if err := p.index.Index(article); err != nil {
			p.logger.Warn("index article", "slug", article.Slug, "error", err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyArticle(ctx, article); err != nil {
			p.logger.Warn("notify article", "slug", article.Slug, "error", err)
		}
	}
}

func (p *Pipeline) uniqueSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		_, err := p.articles.GetArticleBySlug(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%d", base, p.clock.Now().UnixNano()), nil
}
