package ports

import (
	"context"
	"time"

	"PortfolioCMS/internal/domain"
)

// ArticleStore persists blog posts.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article domain.NewArticle) (domain.Article, error)
	GetArticle(ctx context.Context, id int64) (domain.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (domain.Article, error)
	ListArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	UpdateArticle(ctx context.Context, id int64, patch domain.ArticlePatch) (domain.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
	IncrementLikes(ctx context.Context, id int64) (int, error)
}

// LeadStore persists contact-form leads.
type LeadStore interface {
	CreateLead(ctx context.Context, lead domain.NewLead) (domain.Lead, error)
	GetLead(ctx context.Context, id int64) (domain.Lead, error)
	ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
	UpdateLead(ctx context.Context, id int64, patch domain.LeadPatch) (domain.Lead, error)
	DeleteLead(ctx context.Context, id int64) error
}

// ServiceStore exposes the offered services.
type ServiceStore interface {
	ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error)
}

// AnalyticsStore records page views.
type AnalyticsStore interface {
	CreateAnalytics(ctx context.Context, record domain.AnalyticsRecord) (domain.AnalyticsRecord, error)
	ListAnalytics(ctx context.Context, filter domain.AnalyticsFilter) ([]domain.AnalyticsRecord, error)
}

// AnalyticsPruner is implemented by stores that can actually delete old analytics.
type AnalyticsPruner interface {
	DeleteAnalyticsUntil(ctx context.Context, cutoff time.Time) (int, error)
}

// ContentStore is the full persistence surface used by the application.
type ContentStore interface {
	ArticleStore
	LeadStore
	ServiceStore
	AnalyticsStore
	Close() error
}

// TextGenerator turns a prompt into generated text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PersonaGenerator can hand out a generator that shares its client and rate
// limit but answers under a different system instruction.
type PersonaGenerator interface {
	TextGenerator
	WithSystemPrompt(prompt string) TextGenerator
}

// Notifier pushes operator notifications to a chat channel (Telegram).
type Notifier interface {
	NotifyLead(ctx context.Context, lead domain.Lead) error
	NotifyArticle(ctx context.Context, article domain.Article) error
	NotifySystem(ctx context.Context, title, message string) error
}

// Mailer sends transactional email about new leads.
type Mailer interface {
	SendContactConfirmation(ctx context.Context, lead domain.Lead) error
	SendAdminNotification(ctx context.Context, lead domain.Lead) error
}

// ArticleIndex provides full-text search over published articles.
type ArticleIndex interface {
	Index(article domain.Article) error
	Remove(id int64) error
	Search(query string, limit int) ([]int64, error)
}

// Scheduler drives one recurring job.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	// Stop prevents further fires; the returned context is done once
	// a job that is already running has returned.
	Stop(ctx context.Context) context.Context
	Running() bool
}
