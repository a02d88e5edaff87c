package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

var (
	articleColumns = []string{
		"id", "title", "slug", "excerpt", "content", "category", "tags", "author", "featured_image",
		"published", "published_at", "read_time", "views", "likes", "seo_title", "seo_description",
		"created_at", "updated_at",
	}
	leadColumns = []string{
		"id", "name", "email", "phone", "business_type", "service_type", "budget", "timeline", "message",
		"source", "status", "priority", "notes", "follow_up_date", "converted_at", "created_at", "updated_at",
	}
	serviceColumns = []string{
		"id", "title", "subtitle", "description", "features", "pricing", "timeline", "technologies",
		"icon", "color", "popular", "active", "sort_order", "created_at", "updated_at",
	}
	analyticsColumns = []string{"id", "path", "user_agent", "referer", "ip", "country", "device", "ts"}
)

// PoolConfig tunes the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// SQLStore persists content in PostgreSQL or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
	logger  *slog.Logger
}

var (
	_ ports.ContentStore    = (*SQLStore)(nil)
	_ ports.AnalyticsPruner = (*SQLStore)(nil)
)

// OpenSQL connects, verifies connectivity, migrates the schema and seeds
// the default services into an empty services table.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, pool PoolConfig, logger *slog.Logger) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s DSN is required", dialect.Name)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLife)
	}
	if dialect.Name == SQLite.Name {
		// one writer at a time avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	store := &SQLStore{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.placeholder),
		now:     time.Now,
		logger:  logger,
	}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return domain.WrapStorage("migrate schema", err)
	}

	var count int
	query, args, err := s.builder.Select("COUNT(*)").From("services").ToSql()
	if err != nil {
		return domain.WrapStorage("count services", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return domain.WrapStorage("count services", err)
	}
	if count > 0 {
		return nil
	}

	now := s.now().UTC()
	for _, svc := range domain.DefaultServices() {
		features, _ := json.Marshal(svc.Features)
		pricing, _ := json.Marshal(svc.Pricing)
		technologies, _ := json.Marshal(svc.Technologies)
		query, args, err := s.builder.Insert("services").
			Columns(serviceColumns[1:]...).
			Values(svc.Title, svc.Subtitle, svc.Description, string(features), string(pricing), svc.Timeline,
				string(technologies), svc.Icon, svc.Color, svc.Popular, svc.Active, svc.Order, now, now).
			ToSql()
		if err != nil {
			return domain.WrapStorage("seed services", err)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return domain.WrapStorage("seed services", err)
		}
	}
	s.logger.Info("seeded default services", "count", len(domain.DefaultServices()))
	return nil
}

// CreateArticle inserts a new article; a taken slug yields ErrConflict.
func (s *SQLStore) CreateArticle(ctx context.Context, payload domain.NewArticle) (domain.Article, error) {
	article := articleFromPayload(payload, s.now().UTC())
	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return domain.Article{}, domain.WrapStorage("create article", err)
	}

	query, args, err := s.builder.Insert("articles").
		Columns(articleColumns[1:]...).
		Values(article.Title, article.Slug, article.Excerpt, article.Content, article.Category, string(tags),
			article.Author, article.FeaturedImage, article.Published, utcPtr(article.PublishedAt), article.ReadTime,
			article.Views, article.Likes, article.SEOTitle, article.SEODescription, article.CreatedAt, article.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Article{}, domain.WrapStorage("create article", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&article.ID); err != nil {
		return domain.Article{}, domain.WrapStorage("create article", translate(err))
	}
	return article, nil
}

// GetArticle loads an article by id.
func (s *SQLStore) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	return s.getArticle(ctx, "get article", sq.Eq{"id": id})
}

// GetArticleBySlug loads an article by slug.
func (s *SQLStore) GetArticleBySlug(ctx context.Context, slug string) (domain.Article, error) {
	return s.getArticle(ctx, "get article by slug", sq.Eq{"slug": slug})
}

func (s *SQLStore) getArticle(ctx context.Context, op string, where sq.Eq) (domain.Article, error) {
	query, args, err := s.builder.Select(articleColumns...).From("articles").Where(where).ToSql()
	if err != nil {
		return domain.Article{}, domain.WrapStorage(op, err)
	}
	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Article{}, domain.WrapStorage(op, translate(err))
	}
	return article, nil
}

// ListArticles returns matching articles, newest first.
func (s *SQLStore) ListArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	builder := s.builder.Select(articleColumns...).From("articles").OrderBy("created_at DESC", "id DESC")
	if filter.Published != nil {
		builder = builder.Where(sq.Eq{"published": *filter.Published})
	}
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}
	if filter.PublishedFrom != nil {
		builder = builder.Where(sq.GtOrEq{"published_at": filter.PublishedFrom.UTC()})
	}
	if filter.PublishedTo != nil {
		builder = builder.Where(sq.Lt{"published_at": filter.PublishedTo.UTC()})
	}
	builder = paginate(builder, filter.Offset, filter.Limit)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, domain.WrapStorage("list articles", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapStorage("list articles", err)
	}
	defer rows.Close()

	var result []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, domain.WrapStorage("scan article", err)
		}
		result = append(result, article)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list articles", err)
	}
	return result, nil
}

// UpdateArticle applies an admin patch inside a transaction.
func (s *SQLStore) UpdateArticle(ctx context.Context, id int64, patch domain.ArticlePatch) (domain.Article, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Article{}, domain.WrapStorage("update article", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.builder.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Article{}, domain.WrapStorage("update article", err)
	}
	article, err := scanArticle(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Article{}, domain.WrapStorage("update article", translate(err))
	}

	patch.Apply(&article)
	article.UpdatedAt = s.now().UTC()
	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return domain.Article{}, domain.WrapStorage("update article", err)
	}

	query, args, err = s.builder.Update("articles").SetMap(map[string]any{
		"title":           article.Title,
		"slug":            article.Slug,
		"excerpt":         article.Excerpt,
		"content":         article.Content,
		"category":        article.Category,
		"tags":            string(tags),
		"published":       article.Published,
		"published_at":    utcPtr(article.PublishedAt),
		"read_time":       article.ReadTime,
		"seo_title":       article.SEOTitle,
		"seo_description": article.SEODescription,
		"updated_at":      article.UpdatedAt,
	}).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Article{}, domain.WrapStorage("update article", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.Article{}, domain.WrapStorage("update article", translate(err))
	}
	if err := tx.Commit(); err != nil {
		return domain.Article{}, domain.WrapStorage("update article", err)
	}
	return article, nil
}

// DeleteArticle removes an article.
func (s *SQLStore) DeleteArticle(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "delete article", "articles", id)
}

// IncrementViews bumps the view counter.
func (s *SQLStore) IncrementViews(ctx context.Context, id int64) error {
	query, args, err := s.builder.Update("articles").Set("views", sq.Expr("views + 1")).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.WrapStorage("increment views", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapStorage("increment views", err)
	}
	return domain.WrapStorage("increment views", requireAffected(res))
}

// IncrementLikes bumps the like counter and returns the new value.
func (s *SQLStore) IncrementLikes(ctx context.Context, id int64) (int, error) {
	query, args, err := s.builder.Update("articles").Set("likes", sq.Expr("likes + 1")).
		Where(sq.Eq{"id": id}).Suffix("RETURNING likes").ToSql()
	if err != nil {
		return 0, domain.WrapStorage("increment likes", err)
	}
	var likes int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&likes); err != nil {
		return 0, domain.WrapStorage("increment likes", translate(err))
	}
	return likes, nil
}

// CreateLead stores a new lead with status new and medium priority.
func (s *SQLStore) CreateLead(ctx context.Context, payload domain.NewLead) (domain.Lead, error) {
	lead := leadFromPayload(payload, s.now().UTC())
	query, args, err := s.builder.Insert("leads").
		Columns(leadColumns[1:]...).
		Values(lead.Name, lead.Email, lead.Phone, lead.BusinessType, lead.ServiceType, lead.Budget, lead.Timeline,
			lead.Message, lead.Source, string(lead.Status), string(lead.Priority), lead.Notes, nil, nil,
			lead.CreatedAt, lead.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Lead{}, domain.WrapStorage("create lead", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&lead.ID); err != nil {
		return domain.Lead{}, domain.WrapStorage("create lead", err)
	}
	return lead, nil
}

// GetLead loads a lead by id.
func (s *SQLStore) GetLead(ctx context.Context, id int64) (domain.Lead, error) {
	query, args, err := s.builder.Select(leadColumns...).From("leads").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Lead{}, domain.WrapStorage("get lead", err)
	}
	lead, err := scanLead(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Lead{}, domain.WrapStorage("get lead", translate(err))
	}
	return lead, nil
}

// ListLeads returns matching leads, newest first.
func (s *SQLStore) ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	builder := s.builder.Select(leadColumns...).From("leads").OrderBy("created_at DESC", "id DESC")
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Priority != "" {
		builder = builder.Where(sq.Eq{"priority": string(filter.Priority)})
	}
	builder = paginate(builder, 0, filter.Limit)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, domain.WrapStorage("list leads", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapStorage("list leads", err)
	}
	defer rows.Close()

	var result []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, domain.WrapStorage("scan lead", err)
		}
		result = append(result, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list leads", err)
	}
	return result, nil
}

// UpdateLead applies a patch inside a transaction.
func (s *SQLStore) UpdateLead(ctx context.Context, id int64, patch domain.LeadPatch) (domain.Lead, error) {
	if err := patch.Validate(); err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.builder.Select(leadColumns...).From("leads").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", err)
	}
	lead, err := scanLead(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", translate(err))
	}

	now := s.now().UTC()
	patch.Apply(&lead, now)
	lead.UpdatedAt = now

	query, args, err = s.builder.Update("leads").SetMap(map[string]any{
		"status":         string(lead.Status),
		"priority":       string(lead.Priority),
		"notes":          lead.Notes,
		"follow_up_date": utcPtr(lead.FollowUpDate),
		"converted_at":   utcPtr(lead.ConvertedAt),
		"updated_at":     lead.UpdatedAt,
	}).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Lead{}, domain.WrapStorage("update lead", err)
	}
	return lead, nil
}

// DeleteLead removes a lead.
func (s *SQLStore) DeleteLead(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "delete lead", "leads", id)
}

// ListServices returns services ordered by display order.
func (s *SQLStore) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	builder := s.builder.Select(serviceColumns...).From("services").OrderBy("sort_order ASC", "id ASC")
	if activeOnly {
		builder = builder.Where(sq.Eq{"active": true})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, domain.WrapStorage("list services", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapStorage("list services", err)
	}
	defer rows.Close()

	var result []domain.Service
	for rows.Next() {
		var svc domain.Service
		var features, pricing, technologies string
		if err := rows.Scan(&svc.ID, &svc.Title, &svc.Subtitle, &svc.Description, &features, &pricing,
			&svc.Timeline, &technologies, &svc.Icon, &svc.Color, &svc.Popular, &svc.Active, &svc.Order,
			&svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, domain.WrapStorage("scan service", err)
		}
		if err := decodeJSON(features, &svc.Features); err != nil {
			return nil, domain.WrapStorage("decode service features", err)
		}
		if err := decodeJSON(pricing, &svc.Pricing); err != nil {
			return nil, domain.WrapStorage("decode service pricing", err)
		}
		if err := decodeJSON(technologies, &svc.Technologies); err != nil {
			return nil, domain.WrapStorage("decode service technologies", err)
		}
		result = append(result, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list services", err)
	}
	return result, nil
}

// CreateAnalytics records a page view. A zero timestamp is replaced by now.
func (s *SQLStore) CreateAnalytics(ctx context.Context, record domain.AnalyticsRecord) (domain.AnalyticsRecord, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}
	record.Timestamp = record.Timestamp.UTC()

	query, args, err := s.builder.Insert("analytics").
		Columns(analyticsColumns[1:]...).
		Values(record.Path, record.UserAgent, record.Referer, record.IP, record.Country, record.Device, record.Timestamp).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.AnalyticsRecord{}, domain.WrapStorage("create analytics", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&record.ID); err != nil {
		return domain.AnalyticsRecord{}, domain.WrapStorage("create analytics", err)
	}
	return record, nil
}

// ListAnalytics returns matching records, newest first.
func (s *SQLStore) ListAnalytics(ctx context.Context, filter domain.AnalyticsFilter) ([]domain.AnalyticsRecord, error) {
	builder := s.builder.Select(analyticsColumns...).From("analytics").OrderBy("ts DESC", "id DESC")
	if filter.Path != "" {
		builder = builder.Where(sq.Eq{"path": filter.Path})
	}
	if filter.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"ts": filter.DateFrom.UTC()})
	}
	if filter.DateTo != nil {
		builder = builder.Where(sq.LtOrEq{"ts": filter.DateTo.UTC()})
	}
	builder = paginate(builder, 0, filter.Limit)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, domain.WrapStorage("list analytics", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapStorage("list analytics", err)
	}
	defer rows.Close()

	var result []domain.AnalyticsRecord
	for rows.Next() {
		var r domain.AnalyticsRecord
		if err := rows.Scan(&r.ID, &r.Path, &r.UserAgent, &r.Referer, &r.IP, &r.Country, &r.Device, &r.Timestamp); err != nil {
			return nil, domain.WrapStorage("scan analytics", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list analytics", err)
	}
	return result, nil
}

// DeleteAnalyticsUntil drops every record stamped at or before cutoff.
func (s *SQLStore) DeleteAnalyticsUntil(ctx context.Context, cutoff time.Time) (int, error) {
	query, args, err := s.builder.Delete("analytics").Where(sq.LtOrEq{"ts": cutoff.UTC()}).ToSql()
	if err != nil {
		return 0, domain.WrapStorage("delete analytics", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, domain.WrapStorage("delete analytics", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.WrapStorage("delete analytics", err)
	}
	return int(n), nil
}

func (s *SQLStore) deleteByID(ctx context.Context, op, table string, id int64) error {
	query, args, err := s.builder.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.WrapStorage(op, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapStorage(op, err)
	}
	return domain.WrapStorage(op, requireAffected(res))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		a           domain.Article
		tags        string
		publishedAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &a.Category, &tags, &a.Author,
		&a.FeaturedImage, &a.Published, &publishedAt, &a.ReadTime, &a.Views, &a.Likes, &a.SEOTitle,
		&a.SEODescription, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Article{}, err
	}
	if err := decodeJSON(tags, &a.Tags); err != nil {
		return domain.Article{}, fmt.Errorf("decode tags: %w", err)
	}
	a.PublishedAt = timePtr(publishedAt)
	return a, nil
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var (
		l                     domain.Lead
		status, priority      string
		followUp, convertedAt sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.BusinessType, &l.ServiceType, &l.Budget,
		&l.Timeline, &l.Message, &l.Source, &status, &priority, &l.Notes, &followUp, &convertedAt,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return domain.Lead{}, err
	}
	l.Status = domain.LeadStatus(status)
	l.Priority = domain.LeadPriority(priority)
	l.FollowUpDate = timePtr(followUp)
	l.ConvertedAt = timePtr(convertedAt)
	return l, nil
}

func paginate(b sq.SelectBuilder, offset, limit int) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	} else if offset > 0 {
		// SQLite rejects OFFSET without LIMIT
		b = b.Limit(math.MaxInt32)
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}

func decodeJSON(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto domain sentinels.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", liteErr.Error(), domain.ErrConflict)
	}
	return err
}
