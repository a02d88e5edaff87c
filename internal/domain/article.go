package domain

import "time"

// DefaultAuthor is the byline used when nothing else is configured.
const DefaultAuthor = "Akram Farmonov"

// Article is a blog post record with content, metadata and publication state.
type Article struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Excerpt        string     `json:"excerpt,omitempty"`
	Content        string     `json:"content"`
	Category       string     `json:"category"`
	Tags           []string   `json:"tags"`
	Author         string     `json:"author"`
	FeaturedImage  string     `json:"featuredImage,omitempty"`
	Published      bool       `json:"published"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
	ReadTime       int        `json:"readTime"`
	Views          int        `json:"views"`
	Likes          int        `json:"likes"`
	SEOTitle       string     `json:"seoTitle,omitempty"`
	SEODescription string     `json:"seoDescription,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewArticle is the unsaved payload accepted by the content store.
type NewArticle struct {
	Title          string
	Slug           string
	Excerpt        string
	Content        string
	Category       string
	Tags           []string
	Author         string
	FeaturedImage  string
	Published      bool
	PublishedAt    *time.Time
	ReadTime       int
	SEOTitle       string
	SEODescription string
}

// Publish marks the payload as published at the given instant.
func (a *NewArticle) Publish(at time.Time) {
	a.Published = true
	a.PublishedAt = &at
}

// ArticlePatch carries admin edits; nil fields are left untouched.
type ArticlePatch struct {
	Title          *string
	Slug           *string
	Excerpt        *string
	Content        *string
	Category       *string
	Tags           []string
	Published      *bool
	PublishedAt    *time.Time
	ReadTime       *int
	SEOTitle       *string
	SEODescription *string
}

// ArticleFilter narrows ListArticles. Zero values mean "no constraint".
type ArticleFilter struct {
	Published     *bool
	Category      string
	PublishedFrom *time.Time
	PublishedTo   *time.Time
	Limit         int
	Offset        int
}

// Apply merges a patch into the article in place.
func (p ArticlePatch) Apply(a *Article) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Slug != nil {
		a.Slug = *p.Slug
	}
	if p.Excerpt != nil {
		a.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Tags != nil {
		a.Tags = append([]string(nil), p.Tags...)
	}
	if p.Published != nil {
		a.Published = *p.Published
		if a.Published && a.PublishedAt == nil && p.PublishedAt == nil {
			now := time.Now()
			a.PublishedAt = &now
		}
	}
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		a.PublishedAt = &at
	}
	if p.ReadTime != nil {
		a.ReadTime = *p.ReadTime
	}
	if p.SEOTitle != nil {
		a.SEOTitle = *p.SEOTitle
	}
	if p.SEODescription != nil {
		a.SEODescription = *p.SEODescription
	}
}

// Matches reports whether the article satisfies the filter, ignoring paging.
func (f ArticleFilter) Matches(a Article) bool {
	if f.Published != nil && a.Published != *f.Published {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.PublishedFrom != nil || f.PublishedTo != nil {
		if a.PublishedAt == nil {
			return false
		}
		if f.PublishedFrom != nil && a.PublishedAt.Before(*f.PublishedFrom) {
			return false
		}
		if f.PublishedTo != nil && !a.PublishedAt.Before(*f.PublishedTo) {
			return false
		}
	}
	return true
}
