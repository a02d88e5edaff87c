// Package web exposes the public site API, the admin API and operational
// endpoints over gin.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/metrics"
	"PortfolioCMS/internal/ports"
)

// SchedulerControl is the part of the blog scheduler the admin API drives.
type SchedulerControl interface {
	Status() map[string]bool
	RunDuty(ctx context.Context, name string) error
	GenerateNow(ctx context.Context, count int) ([]domain.Article, error)
}

// Deps are the collaborators handlers call into. Generator, Index,
// Notifier and Mailer may be nil.
type Deps struct {
	Store     ports.ContentStore
	Index     ports.ArticleIndex
	Notifier  ports.Notifier
	Mailer    ports.Mailer
	Generator ports.TextGenerator
	Scheduler SchedulerControl
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Options configure the HTTP surface.
type Options struct {
	Server config.ServerConfig
	Admin  config.AdminConfig
	Author string
}

// Server owns the gin engine and the underlying http.Server.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	tokens *tokenStore
	deps   Deps
	author string
	logger *slog.Logger

	// assistant answers chat messages under the assistant persona.
	assistant ports.TextGenerator
}

// NewServer wires routes and middleware.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("web server requires a content store")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	author := opts.Author
	if author == "" {
		author = domain.DefaultAuthor
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	if err := registerValidators(); err != nil {
		return nil, err
	}

	s := &Server{
		engine: engine,
		tokens: newTokenStore(opts.Admin.Password, opts.Admin.TokenTTL, deps.Now),
		deps:   deps,
		author: author,
		logger: deps.Logger.With("component", "http"),

		assistant: deps.Generator,
	}
	if persona, ok := deps.Generator.(ports.PersonaGenerator); ok {
		s.assistant = persona.WithSystemPrompt(chatSystemPrompt)
	}
	s.routes(opts.Server.RateLimit)

	s.http = &http.Server{
		Addr:              opts.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       opts.Server.ReadTimeout,
		WriteTimeout:      opts.Server.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes(limit config.RateLimitConfig) {
	s.engine.Use(recovery(s.logger), requestLogger(s.logger), instrument(s.deps.Metrics))

	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	api := s.engine.Group("/api")
	api.Use(rateLimit(limit, s.deps.Now), trackPageViews(s.deps.Store, s.deps.Now, s.logger))
	api.GET("/services", s.listServices)
	api.GET("/posts", s.listPosts)
	api.GET("/posts/search", s.searchPosts)
	api.GET("/posts/:slug", s.getPost)
	api.POST("/posts/:slug/like", s.likePost)
	api.POST("/contact", s.contact)
	api.POST("/chat", s.chat)
	api.POST("/auth/admin", s.login)

	admin := api.Group("/admin")
	admin.Use(requireAdmin(s.tokens))
	admin.GET("/posts", s.adminListPosts)
	admin.POST("/posts", s.adminCreatePost)
	admin.PUT("/posts/:id", s.adminUpdatePost)
	admin.DELETE("/posts/:id", s.adminDeletePost)
	admin.GET("/leads", s.adminListLeads)
	admin.PATCH("/leads/:id", s.adminUpdateLead)
	admin.DELETE("/leads/:id", s.adminDeleteLead)
	admin.POST("/generate-posts", s.adminGeneratePosts)
	admin.GET("/scheduler", s.adminSchedulerStatus)
	admin.POST("/scheduler/:duty/run", s.adminRunDuty)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.deps.Now().UTC()})
}
