package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

// MemoryStore keeps all content in process memory. It is the default
// backend for local runs and tests.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	articles  map[int64]domain.Article
	leads     map[int64]domain.Lead
	services  []domain.Service
	analytics map[int64]domain.AnalyticsRecord

	nextArticleID   int64
	nextLeadID      int64
	nextAnalyticsID int64
}

var (
	_ ports.ContentStore    = (*MemoryStore)(nil)
	_ ports.AnalyticsPruner = (*MemoryStore)(nil)
)

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// NewMemoryStore builds an empty store seeded with the default services.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		now:       time.Now,
		articles:  map[int64]domain.Article{},
		leads:     map[int64]domain.Lead{},
		analytics: map[int64]domain.AnalyticsRecord{},
	}
	for _, opt := range opts {
		opt(m)
	}

	now := m.now()
	for i, svc := range domain.DefaultServices() {
		svc.ID = int64(i + 1)
		svc.CreatedAt = now
		svc.UpdatedAt = now
		m.services = append(m.services, svc)
	}
	return m
}

// CreateArticle stores a new article. Slugs must be unique.
func (m *MemoryStore) CreateArticle(_ context.Context, payload domain.NewArticle) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.articles {
		if existing.Slug == payload.Slug {
			return domain.Article{}, domain.WrapStorage("create article", fmt.Errorf("slug %q: %w", payload.Slug, domain.ErrConflict))
		}
	}

	m.nextArticleID++
	now := m.now()
	article := articleFromPayload(payload, now)
	article.ID = m.nextArticleID
	m.articles[article.ID] = article
	return cloneArticle(article), nil
}

// GetArticle returns the article by id.
func (m *MemoryStore) GetArticle(_ context.Context, id int64) (domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	article, ok := m.articles[id]
	if !ok {
		return domain.Article{}, domain.WrapStorage("get article", domain.ErrNotFound)
	}
	return cloneArticle(article), nil
}

// GetArticleBySlug returns the article with the given slug.
func (m *MemoryStore) GetArticleBySlug(_ context.Context, slug string) (domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, article := range m.articles {
		if article.Slug == slug {
			return cloneArticle(article), nil
		}
	}
	return domain.Article{}, domain.WrapStorage("get article by slug", domain.ErrNotFound)
}

// ListArticles returns matching articles, newest first.
func (m *MemoryStore) ListArticles(_ context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	m.mu.RLock()
	result := make([]domain.Article, 0, len(m.articles))
	for _, article := range m.articles {
		if filter.Matches(article) {
			result = append(result, cloneArticle(article))
		}
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return page(result, filter.Offset, filter.Limit), nil
}

// UpdateArticle applies an admin patch.
func (m *MemoryStore) UpdateArticle(_ context.Context, id int64, patch domain.ArticlePatch) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	article, ok := m.articles[id]
	if !ok {
		return domain.Article{}, domain.WrapStorage("update article", domain.ErrNotFound)
	}
	if patch.Slug != nil && *patch.Slug != article.Slug {
		for _, other := range m.articles {
			if other.Slug == *patch.Slug {
				return domain.Article{}, domain.WrapStorage("update article", fmt.Errorf("slug %q: %w", *patch.Slug, domain.ErrConflict))
			}
		}
	}
	patch.Apply(&article)
	article.UpdatedAt = m.now()
	m.articles[id] = article
	return cloneArticle(article), nil
}

// DeleteArticle removes an article.
func (m *MemoryStore) DeleteArticle(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[id]; !ok {
		return domain.WrapStorage("delete article", domain.ErrNotFound)
	}
	delete(m.articles, id)
	return nil
}

// IncrementViews bumps the view counter.
func (m *MemoryStore) IncrementViews(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	article, ok := m.articles[id]
	if !ok {
		return domain.WrapStorage("increment views", domain.ErrNotFound)
	}
	article.Views++
	m.articles[id] = article
	return nil
}

// IncrementLikes bumps the like counter and returns the new value.
func (m *MemoryStore) IncrementLikes(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	article, ok := m.articles[id]
	if !ok {
		return 0, domain.WrapStorage("increment likes", domain.ErrNotFound)
	}
	article.Likes++
	m.articles[id] = article
	return article.Likes, nil
}

// CreateLead stores a new lead with status new and medium priority.
func (m *MemoryStore) CreateLead(_ context.Context, payload domain.NewLead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextLeadID++
	lead := leadFromPayload(payload, m.now())
	lead.ID = m.nextLeadID
	m.leads[lead.ID] = lead
	return cloneLead(lead), nil
}

// GetLead returns a lead by id.
func (m *MemoryStore) GetLead(_ context.Context, id int64) (domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, domain.WrapStorage("get lead", domain.ErrNotFound)
	}
	return cloneLead(lead), nil
}

// ListLeads returns matching leads, newest first.
func (m *MemoryStore) ListLeads(_ context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	m.mu.RLock()
	result := make([]domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		if filter.Matches(lead) {
			result = append(result, cloneLead(lead))
		}
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return page(result, 0, filter.Limit), nil
}

// UpdateLead applies a patch to a lead.
func (m *MemoryStore) UpdateLead(_ context.Context, id int64, patch domain.LeadPatch) (domain.Lead, error) {
	if err := patch.Validate(); err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, domain.WrapStorage("update lead", domain.ErrNotFound)
	}
	now := m.now()
	patch.Apply(&lead, now)
	lead.UpdatedAt = now
	m.leads[id] = lead
	return cloneLead(lead), nil
}

// DeleteLead removes a lead.
func (m *MemoryStore) DeleteLead(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[id]; !ok {
		return domain.WrapStorage("delete lead", domain.ErrNotFound)
	}
	delete(m.leads, id)
	return nil
}

// ListServices returns services ordered by their display order.
func (m *MemoryStore) ListServices(_ context.Context, activeOnly bool) ([]domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.Service, 0, len(m.services))
	for _, svc := range m.services {
		if activeOnly && !svc.Active {
			continue
		}
		result = append(result, svc)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

// CreateAnalytics records a page view. A zero timestamp is replaced by now.
func (m *MemoryStore) CreateAnalytics(_ context.Context, record domain.AnalyticsRecord) (domain.AnalyticsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAnalyticsID++
	record.ID = m.nextAnalyticsID
	if record.Timestamp.IsZero() {
		record.Timestamp = m.now()
	}
	m.analytics[record.ID] = record
	return record, nil
}

// ListAnalytics returns matching records, newest first.
func (m *MemoryStore) ListAnalytics(_ context.Context, filter domain.AnalyticsFilter) ([]domain.AnalyticsRecord, error) {
	m.mu.RLock()
	result := make([]domain.AnalyticsRecord, 0, len(m.analytics))
	for _, record := range m.analytics {
		if filter.Matches(record) {
			result = append(result, record)
		}
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID > result[j].ID
	})
	return page(result, 0, filter.Limit), nil
}

// DeleteAnalyticsUntil drops every record stamped at or before cutoff.
func (m *MemoryStore) DeleteAnalyticsUntil(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := domain.AnalyticsFilter{DateTo: &cutoff}
	removed := 0
	for id, record := range m.analytics {
		if old.Matches(record) {
			delete(m.analytics, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func articleFromPayload(p domain.NewArticle, now time.Time) domain.Article {
	author := p.Author
	if author == "" {
		author = domain.DefaultAuthor
	}
	article := domain.Article{
		Title:          p.Title,
		Slug:           p.Slug,
		Excerpt:        p.Excerpt,
		Content:        p.Content,
		Category:       p.Category,
		Tags:           append([]string{}, p.Tags...),
		Author:         author,
		FeaturedImage:  p.FeaturedImage,
		Published:      p.Published,
		ReadTime:       p.ReadTime,
		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		article.PublishedAt = &at
	} else if p.Published {
		at := now
		article.PublishedAt = &at
	}
	return article
}

func leadFromPayload(p domain.NewLead, now time.Time) domain.Lead {
	source := p.Source
	if source == "" {
		source = domain.SourceContactForm
	}
	return domain.Lead{
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		BusinessType: p.BusinessType,
		ServiceType:  p.ServiceType,
		Budget:       p.Budget,
		Timeline:     p.Timeline,
		Message:      p.Message,
		Source:       source,
		Status:       domain.LeadNew,
		Priority:     domain.PriorityMedium,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func cloneArticle(a domain.Article) domain.Article {
	a.Tags = append([]string{}, a.Tags...)
	if a.PublishedAt != nil {
		at := *a.PublishedAt
		a.PublishedAt = &at
	}
	return a
}

func cloneLead(l domain.Lead) domain.Lead {
	if l.FollowUpDate != nil {
		at := *l.FollowUpDate
		l.FollowUpDate = &at
	}
	if l.ConvertedAt != nil {
		at := *l.ConvertedAt
		l.ConvertedAt = &at
	}
	return l
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
