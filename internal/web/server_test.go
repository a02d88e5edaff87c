package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/infrastructure/search"
	"PortfolioCMS/internal/infrastructure/storage"
	"PortfolioCMS/internal/metrics"
	"PortfolioCMS/internal/ports"
	"PortfolioCMS/internal/usecase"
)

const testPassword = "s3cret"

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingMailer struct {
	mu            sync.Mutex
	confirmations []domain.Lead
	admin         []domain.Lead
	err           error
}

func (m *recordingMailer) SendContactConfirmation(_ context.Context, lead domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, lead)
	return m.err
}

func (m *recordingMailer) SendAdminNotification(_ context.Context, lead domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admin = append(m.admin, lead)
	return m.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	leads []domain.Lead
}

func (n *recordingNotifier) NotifyLead(_ context.Context, lead domain.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
	return nil
}

func (n *recordingNotifier) NotifyArticle(context.Context, domain.Article) error { return nil }

func (n *recordingNotifier) NotifySystem(context.Context, string, string) error { return nil }

type scriptedGenerator struct {
	reply   string
	err     error
	persona string
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (g *scriptedGenerator) WithSystemPrompt(prompt string) ports.TextGenerator {
	g.persona = prompt
	return g
}

type fakeScheduler struct {
	store     *storage.MemoryStore
	requested []int
	ran       []string
	runErr    error
}

func (f *fakeScheduler) Status() map[string]bool {
	return map[string]bool{usecase.DutyBlogGeneration: true, usecase.DutyCleanup: false}
}

func (f *fakeScheduler) RunDuty(_ context.Context, name string) error {
	f.ran = append(f.ran, name)
	return f.runErr
}

func (f *fakeScheduler) GenerateNow(ctx context.Context, count int) ([]domain.Article, error) {
	f.requested = append(f.requested, count)
	var drafts []domain.Article
	for i := 0; i < count; i++ {
		article, err := f.store.CreateArticle(ctx, domain.NewArticle{
			Title:   "Generated",
			Slug:    "generated-" + string(rune('a'+i)),
			Content: "body",
		})
		if err != nil {
			return drafts, err
		}
		drafts = append(drafts, article)
	}
	return drafts, nil
}

type harness struct {
	server    *Server
	store     *storage.MemoryStore
	index     *search.Index
	mailer    *recordingMailer
	notifier  *recordingNotifier
	generator *scriptedGenerator
	scheduler *fakeScheduler
	metrics   *metrics.Metrics
	now       time.Time
}

func newHarness(t *testing.T, limit config.RateLimitConfig) *harness {
	t.Helper()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := storage.NewMemoryStore(storage.WithClock(clock))
	index, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	h := &harness{
		store:     store,
		index:     index,
		mailer:    &recordingMailer{},
		notifier:  &recordingNotifier{},
		generator: &scriptedGenerator{reply: "  Salom!  "},
		scheduler: &fakeScheduler{store: store},
		metrics:   metrics.New(),
		now:       now,
	}
	srv, err := NewServer(Options{
		Server: config.ServerConfig{Addr: ":0", RateLimit: limit},
		Admin:  config.AdminConfig{Password: testPassword},
	}, Deps{
		Store:     store,
		Index:     index,
		Notifier:  h.notifier,
		Mailer:    h.mailer,
		Generator: h.generator,
		Scheduler: h.scheduler,
		Metrics:   h.metrics,
		Now:       clock,
	})
	require.NoError(t, err)
	h.server = srv
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/auth/admin", gin.H{"password": testPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (h *harness) publish(t *testing.T, title, slug, content string) domain.Article {
	t.Helper()
	payload := domain.NewArticle{Title: title, Slug: slug, Content: content, Tags: []string{}}
	payload.Publish(h.now)
	article, err := h.store.CreateArticle(context.Background(), payload)
	require.NoError(t, err)
	require.NoError(t, h.index.Index(article))
	return article
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestContactValidation(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})

	rec := h.do(t, http.MethodPost, "/api/contact", gin.H{"name": "Ali", "email": "not-an-email"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, rec)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "message")
	assert.NotContains(t, resp.Fields, "name")

	leads, err := h.store.ListLeads(context.Background(), domain.LeadFilter{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestContactCreatesLeadAndNotifies(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	h.mailer.err = errors.New("smtp down")

	rec := h.do(t, http.MethodPost, "/api/contact", gin.H{
		"name":        "Ali Valiyev",
		"email":       "ali@example.uz",
		"message":     "Telegram bot kerak",
		"serviceType": "Telegram Botlar",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[struct {
		Success bool  `json:"success"`
		LeadID  int64 `json:"leadId"`
	}](t, rec)
	assert.True(t, resp.Success)

	lead, err := h.store.GetLead(context.Background(), resp.LeadID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadNew, lead.Status)
	assert.Equal(t, domain.SourceContactForm, lead.Source)
	assert.Equal(t, "Telegram Botlar", lead.ServiceType)

	assert.Len(t, h.mailer.confirmations, 1)
	assert.Len(t, h.mailer.admin, 1)
	assert.Len(t, h.notifier.leads, 1)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})

	rec := h.do(t, http.MethodGet, "/api/admin/leads", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/leads", nil, "made-up")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/auth/admin", gin.H{"password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := h.login(t)
	rec = h.do(t, http.MethodGet, "/api/admin/leads", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	srv, err := NewServer(Options{}, Deps{Store: storage.NewMemoryStore()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/admin", strings.NewReader(`{"password":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGeneratePostsDefaultsToOneDraft(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	token := h.login(t)

	rec := h.do(t, http.MethodPost, "/api/admin/generate-posts", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[struct {
		Count int              `json:"count"`
		Posts []domain.Article `json:"posts"`
	}](t, rec)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Posts, 1)
	assert.False(t, resp.Posts[0].Published)
	assert.Equal(t, []int{1}, h.scheduler.requested)
}

func TestGeneratePostsRejectsOutOfRangeCount(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	token := h.login(t)

	for _, count := range []int{0, 11, -3} {
		rec := h.do(t, http.MethodPost, "/api/admin/generate-posts", gin.H{"count": count}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "count %d", count)
	}
	assert.Empty(t, h.scheduler.requested)
}

func TestAdminCreateAndPublishPost(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	token := h.login(t)

	rec := h.do(t, http.MethodPost, "/api/admin/posts", gin.H{
		"title":   "Next.js bilan SEO",
		"content": strings.Repeat("so'z ", 400),
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Post domain.Article `json:"post"`
	}](t, rec).Post
	assert.Equal(t, "nextjs-bilan-seo", created.Slug)
	assert.Equal(t, "general", created.Category)
	assert.Equal(t, 2, created.ReadTime)
	assert.False(t, created.Published)

	rec = h.do(t, http.MethodGet, "/api/posts/"+created.Slug, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/admin/posts/"+itoa(created.ID), gin.H{
		"title":   created.Title,
		"content": created.Content,
		"status":  "published",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/posts/"+created.Slug, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	post := decode[domain.Article](t, rec)
	require.NotNil(t, post.PublishedAt)
	assert.True(t, post.PublishedAt.Equal(h.now))

	rec = h.do(t, http.MethodDelete, "/api/admin/posts/"+itoa(created.ID), nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodDelete, "/api/admin/posts/"+itoa(created.ID), nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUpdateLead(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	token := h.login(t)
	lead, err := h.store.CreateLead(context.Background(), domain.NewLead{Name: "Ali", Source: domain.SourceContactForm})
	require.NoError(t, err)

	rec := h.do(t, http.MethodPatch, "/api/admin/leads/"+itoa(lead.ID), gin.H{"status": "archived"}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "status")

	rec = h.do(t, http.MethodPatch, "/api/admin/leads/"+itoa(lead.ID), gin.H{"status": "converted", "priority": "high"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Lead](t, rec)
	assert.Equal(t, domain.LeadConverted, updated.Status)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	assert.NotNil(t, updated.ConvertedAt)

	rec = h.do(t, http.MethodGet, "/api/admin/leads?status=converted", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Lead](t, rec), 1)

	rec = h.do(t, http.MethodGet, "/api/admin/leads?priority=urgent", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostViewsAndLikes(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	article := h.publish(t, "Telegram bot narxlari", "telegram-bot-narxlari", "matn")

	rec := h.do(t, http.MethodGet, "/api/posts/telegram-bot-narxlari", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[domain.Article](t, rec).Views)

	rec = h.do(t, http.MethodPost, "/api/posts/telegram-bot-narxlari/like", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"likes":1}`, rec.Body.String())

	stored, err := h.store.GetArticle(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Views)
	assert.Equal(t, 1, stored.Likes)

	views, err := h.store.ListAnalytics(context.Background(), domain.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "/api/posts/telegram-bot-narxlari", views[0].Path)
}

func TestListPostsHidesDrafts(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	h.publish(t, "Birinchi", "birinchi", "matn")
	_, err := h.store.CreateArticle(context.Background(), domain.NewArticle{Title: "Qoralama", Slug: "qoralama", Content: "x"})
	require.NoError(t, err)

	rec := h.do(t, http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decode[[]domain.Article](t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, "birinchi", posts[0].Slug)

	rec = h.do(t, http.MethodGet, "/api/posts?limit=500", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchPosts(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	h.publish(t, "Telegram bot yaratish", "telegram-bot", "Botlar haqida")
	h.publish(t, "Web sayt narxi", "web-sayt", "Saytlar haqida")

	rec := h.do(t, http.MethodGet, "/api/posts/search?q=telegram", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[[]domain.Article](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, "telegram-bot", results[0].Slug)

	rec = h.do(t, http.MethodGet, "/api/posts/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServicesListed(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})

	rec := h.do(t, http.MethodGet, "/api/services", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	services := decode[[]domain.Service](t, rec)
	require.NotEmpty(t, services)
	assert.Equal(t, "Web Saytlar", services[0].Title)
}

func TestRateLimitPerIP(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{Requests: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		rec := h.do(t, http.MethodGet, "/api/services", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := h.do(t, http.MethodGet, "/api/services", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")

	rec = h.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})

	rec := h.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = h.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.HTTPRequests.WithLabelValues("/health", http.MethodGet, "200")))
}

func TestChat(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})

	rec := h.do(t, http.MethodPost, "/api/chat", gin.H{
		"message": "Bot narxi qancha?",
		"history": []gin.H{{"role": "user", "content": "Salom"}, {"role": "assistant", "content": "Assalomu alaykum"}},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Success  bool   `json:"success"`
		Response string `json:"response"`
	}](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Salom!", resp.Response)

	require.Len(t, h.generator.prompts, 1)
	prompt := h.generator.prompts[0]
	assert.Contains(t, prompt, domain.DefaultAuthor)
	assert.Contains(t, prompt, "Web Saytlar")
	assert.Contains(t, prompt, "Foydalanuvchi: Salom\nYordamchi: Assalomu alaykum\n")
	assert.True(t, strings.HasSuffix(prompt, "Foydalanuvchi: Bot narxi qancha?\n\nYordamchi:"))
	assert.Equal(t, chatSystemPrompt, h.generator.persona, "chat answers under its own system instruction")
}

func TestChatFallsBackOnGeneratorError(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	h.generator.err = errors.New("quota exceeded")

	rec := h.do(t, http.MethodPost, "/api/chat", gin.H{"message": "Salom"}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "Chatbot xizmatida muammo yuz berdi", resp["error"])
	assert.Contains(t, resp["fallback"], "+998 91 123 45 67")
}

func TestRunDutyErrors(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	token := h.login(t)

	rec := h.do(t, http.MethodGet, "/api/admin/scheduler", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"timers":{"blogGeneration":true,"cleanup":false}}`, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/admin/scheduler/cleanup/run", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.scheduler.runErr = usecase.ErrUnknownDuty
	rec = h.do(t, http.MethodPost, "/api/admin/scheduler/nope/run", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h.scheduler.runErr = usecase.ErrDutyRunning
	rec = h.do(t, http.MethodPost, "/api/admin/scheduler/cleanup/run", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, []string{"cleanup", "nope", "cleanup"}, h.scheduler.ran)
}

func itoa(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
