package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/infrastructure/storage"
)

func published(id int64, title, content string, tags ...string) domain.Article {
	at := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	return domain.Article{ID: id, Title: title, Content: content, Tags: tags, Published: true, PublishedAt: &at}
}

func TestIndexSearchRanksTitleFirst(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, idx.Index(published(1, "Web sayt tezligi", "Telegram haqida bir og'iz so'z")))
	require.NoError(t, idx.Index(published(2, "Telegram bot yaratish", "Bot API bilan ishlash", "telegram", "bot")))
	require.NoError(t, idx.Index(published(3, "Startap g'oyalari", "Investitsiya va MVP")))

	ids, err := idx.Search("telegram", 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)

	none, err := idx.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIndexDraftsAreRemoved(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	article := published(5, "Chatbot integratsiyasi", "AI chatbot")
	require.NoError(t, idx.Index(article))

	article.Published = false
	require.NoError(t, idx.Index(article))
	require.NoError(t, idx.Remove(99))

	ids, err := idx.Search("chatbot", 5)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRebuildFromStore(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	ctx := context.Background()
	at := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	_, err := store.CreateArticle(ctx, domain.NewArticle{Title: "Avtomatlashtirish", Slug: "a", Content: "CRM", Published: true, PublishedAt: &at})
	require.NoError(t, err)
	_, err = store.CreateArticle(ctx, domain.NewArticle{Title: "Qoralama", Slug: "b", Content: "CRM"})
	require.NoError(t, err)

	idx, err := Open(filepath.Join(t.TempDir(), "articles.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	n, err := idx.Rebuild(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
