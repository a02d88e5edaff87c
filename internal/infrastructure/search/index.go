package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

// Index wraps a Bleve index over published articles.
type Index struct {
	index bleve.Index
}

var _ ports.ArticleIndex = (*Index)(nil)

// indexedArticle is the document shape stored in Bleve.
type indexedArticle struct {
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Open opens or creates an on-disk index at path; an empty path keeps
// the index in memory.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("excerpt", text)
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("tags", text)
	doc.AddFieldMappingsAt("category", keyword)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Index adds or refreshes a published article; drafts are removed.
func (i *Index) Index(article domain.Article) error {
	if !article.Published {
		return i.Remove(article.ID)
	}
	if err := i.index.Index(docID(article.ID), toDocument(article)); err != nil {
		return fmt.Errorf("index article %d: %w", article.ID, err)
	}
	return nil
}

// Remove drops an article from the index. Unknown ids are ignored.
func (i *Index) Remove(id int64) error {
	if err := i.index.Delete(docID(id)); err != nil {
		return fmt.Errorf("remove article %d: %w", id, err)
	}
	return nil
}

// Search runs a match query with title hits weighted highest and returns
// article ids in relevance order.
func (i *Index) Search(text string, limit int) ([]int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	boosts := []struct {
		field string
		boost float64
	}{
		{"title", 3},
		{"tags", 2},
		{"excerpt", 1.5},
		{"content", 1},
	}
	queries := make([]query.Query, 0, len(boosts))
	for _, b := range boosts {
		q := bleve.NewMatchQuery(text)
		q.SetField(b.field)
		q.SetBoost(b.boost)
		queries = append(queries, q)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), limit, 0, false)
	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Rebuild indexes every published article from the store in one batch.
func (i *Index) Rebuild(ctx context.Context, store ports.ArticleStore) (int, error) {
	published := true
	articles, err := store.ListArticles(ctx, domain.ArticleFilter{Published: &published})
	if err != nil {
		return 0, fmt.Errorf("list articles: %w", err)
	}

	batch := i.index.NewBatch()
	for _, a := range articles {
		if err := batch.Index(docID(a.ID), toDocument(a)); err != nil {
			return 0, fmt.Errorf("batch index %d: %w", a.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(articles), nil
}

// Count returns the number of indexed articles.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toDocument(a domain.Article) indexedArticle {
	return indexedArticle{
		Title:    a.Title,
		Excerpt:  a.Excerpt,
		Content:  a.Content,
		Category: a.Category,
		Tags:     a.Tags,
	}
}
