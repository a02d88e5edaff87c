// Package composer turns topic ideas into article payloads using a text generator.
package composer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
	"PortfolioCMS/internal/topics"
)

// DefaultTitle replaces a missing TITLE section.
const DefaultTitle = "Yangi Blog Maqolasi"

const (
	excerptRunes        = 200
	seoDescriptionRunes = 160
)

// Options tunes a Composer. Zero values fall back to sensible defaults.
type Options struct {
	Author  string
	Timeout time.Duration
	Picker  *topics.Picker
	Logger  *slog.Logger
}

// Composer builds one article payload per generation call. It never retries.
type Composer struct {
	generator ports.TextGenerator
	author    string
	timeout   time.Duration
	picker    *topics.Picker
	logger    *slog.Logger
}

// New wires a composer around the text generator.
func New(generator ports.TextGenerator, opts Options) *Composer {
	if opts.Author == "" {
		opts.Author = domain.DefaultAuthor
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Composer{
		generator: generator,
		author:    opts.Author,
		timeout:   opts.Timeout,
		picker:    opts.Picker,
		logger:    opts.Logger,
	}
}

// ComposeRandom draws an idea from the picker and composes it.
func (c *Composer) ComposeRandom(ctx context.Context) (domain.NewArticle, error) {
	if c.picker == nil {
		return domain.NewArticle{}, &domain.GenerationError{Err: errors.New("no topic picker configured")}
	}
	idea, ok := c.picker.Random()
	if !ok {
		return domain.NewArticle{}, &domain.GenerationError{Err: errors.New("topic catalog is empty")}
	}
	return c.Compose(ctx, idea)
}

// Compose generates and parses one article for idea. The payload is an
// unpublished draft; callers that auto-publish flip it themselves.
func (c *Composer) Compose(ctx context.Context, idea topics.Idea) (domain.NewArticle, error) {
	if c.generator == nil {
		return domain.NewArticle{}, &domain.GenerationError{Topic: idea.Title, Err: errors.New("text generator is not configured")}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.generator.Generate(callCtx, BuildPrompt(idea, c.author))
	if err != nil {
		return domain.NewArticle{}, &domain.GenerationError{Topic: idea.Title, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return domain.NewArticle{}, &domain.GenerationError{Topic: idea.Title, Err: domain.ErrEmptyGeneration}
	}

	sections := Parse(text)
	if sections.Content.Empty() {
		return domain.NewArticle{}, &domain.GenerationError{Topic: idea.Title, Err: domain.ErrMissingContent}
	}
	if missing := sections.Missing(); len(missing) > 0 {
		c.logger.Warn("generated text is incomplete, applying fallbacks", "topic", idea.Title, "missing", missing)
	}

	fields := applyFallbacks(sections)
	return domain.NewArticle{
		Title:          fields.title,
		Slug:           Slugify(fields.title),
		Excerpt:        fields.excerpt,
		Content:        fields.content,
		Category:       string(idea.Category),
		Tags:           append([]string(nil), idea.Tags...),
		Author:         c.author,
		Published:      false,
		ReadTime:       ReadTime(fields.content),
		SEOTitle:       fields.seoTitle,
		SEODescription: fields.seoDescription,
	}, nil
}

type articleFields struct {
	title          string
	excerpt        string
	seoTitle       string
	seoDescription string
	content        string
}

func applyFallbacks(s Sections) articleFields {
	f := articleFields{
		title:          s.Title.Text,
		excerpt:        s.Excerpt.Text,
		seoTitle:       s.SEOTitle.Text,
		seoDescription: s.SEODescription.Text,
		content:        s.Content.Text,
	}
	if f.title == "" {
		f.title = DefaultTitle
	}
	if f.excerpt == "" {
		f.excerpt = truncateRunes(f.content, excerptRunes) + "..."
	}
	if f.seoTitle == "" {
		f.seoTitle = f.title
	}
	if f.seoDescription == "" {
		f.seoDescription = truncateRunes(f.excerpt, seoDescriptionRunes)
	}
	return f
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
