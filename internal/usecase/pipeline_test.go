package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/composer"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/infrastructure/storage"
	"PortfolioCMS/internal/topics"
)

type recordingIndex struct {
	indexed []int64
}

func (r *recordingIndex) Index(a domain.Article) error {
	r.indexed = append(r.indexed, a.ID)
	return nil
}
func (r *recordingIndex) Remove(int64) error                  { return nil }
func (r *recordingIndex) Search(string, int) ([]int64, error) { return nil, nil }

type recordingNotifier struct {
	articles []string
	err      error
}

func (r *recordingNotifier) NotifyLead(context.Context, domain.Lead) error { return nil }
func (r *recordingNotifier) NotifyArticle(_ context.Context, a domain.Article) error {
	r.articles = append(r.articles, a.Slug)
	return r.err
}
func (r *recordingNotifier) NotifySystem(context.Context, string, string) error { return nil }

func TestPipelineAnnouncesOnlyPublishedArticles(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	index := &recordingIndex{}
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	gen := &scriptedGenerator{}
	p := NewPipeline(PipelineDeps{
		Composer: composer.New(gen, composer.Options{Picker: topics.NewPicker(topics.All(), func(int) int { return 0 })}),
		Articles: store,
		Index:    index,
		Notifier: notifier,
	})
	ctx := context.Background()

	draft, err := p.Produce(ctx, GenerationRequest{Trigger: "manual"})
	require.NoError(t, err)
	assert.False(t, draft.Published)
	assert.Empty(t, index.indexed)
	assert.Empty(t, notifier.articles)

	at := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	idea := topics.Samples()[0]
	published, err := p.Produce(ctx, GenerationRequest{Idea: &idea, PublishAt: &at, Trigger: "schedule"})
	require.NoError(t, err, "notification failures must not fail the article")
	assert.True(t, published.Published)
	require.NotNil(t, published.PublishedAt)
	assert.True(t, published.PublishedAt.Equal(at))
	assert.Equal(t, string(topics.TelegramBots), published.Category)
	assert.Equal(t, []int64{published.ID}, index.indexed)
	assert.Equal(t, []string{published.Slug}, notifier.articles)
}

func TestPipelineRequiresComposer(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineDeps{Articles: storage.NewMemoryStore()}).Produce(context.Background(), GenerationRequest{})
	assert.Error(t, err)
}

func TestPipelineTurnsComposerPanicIntoError(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	gen := &scriptedGenerator{script: map[int]func() (string, error){
		0: func() (string, error) { panic("sdk nil pointer") },
	}}
	p := NewPipeline(PipelineDeps{
		Composer: composer.New(gen, composer.Options{Picker: topics.NewPicker(topics.All(), func(int) int { return 0 })}),
		Articles: store,
	})

	var err error
	require.NotPanics(t, func() { _, err = p.Produce(context.Background(), GenerationRequest{Trigger: "manual"}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	article, err := p.Produce(context.Background(), GenerationRequest{Trigger: "manual"})
	require.NoError(t, err)
	assert.NotZero(t, article.ID)
}
