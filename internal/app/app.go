package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"PortfolioCMS/internal/composer"
	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/infrastructure/mail"
	"PortfolioCMS/internal/infrastructure/scheduler"
	"PortfolioCMS/internal/infrastructure/search"
	"PortfolioCMS/internal/infrastructure/storage"
	"PortfolioCMS/internal/infrastructure/telegram"
	"PortfolioCMS/internal/logging"
	"PortfolioCMS/internal/metrics"
	"PortfolioCMS/internal/ports"
	"PortfolioCMS/internal/provider"
	"PortfolioCMS/internal/topics"
	"PortfolioCMS/internal/usecase"
	"PortfolioCMS/internal/web"
)

const (
	shutdownTimeout = 30 * time.Second
	seedDelay       = 5 * time.Second
)

// Application wires configs to use cases and owns their lifecycle.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	metrics   *metrics.Metrics
	store     ports.ContentStore
	index     *search.Index
	generator ports.TextGenerator
	notifier  *telegram.Notifier
	pipeline  *usecase.Pipeline
	scheduler *usecase.BlogScheduler
	server    *web.Server
}

// New builds every adapter and use case. Text generation is optional:
// without an API key the site still serves content and leads, and the
// generation paths report an error.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (_ *Application, err error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger, metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}

	if a.store, err = openStore(ctx, cfg.Storage, baseLogger.With("component", "storage")); err != nil {
		return nil, err
	}

	if a.index, err = search.Open(cfg.Search.Path); err != nil {
		return nil, err
	}
	indexed, err := a.index.Rebuild(ctx, a.store)
	if err != nil {
		return nil, fmt.Errorf("rebuild search index: %w", err)
	}
	baseLogger.Info("search index ready", "documents", indexed)

	if cfg.Generator.APIKey == "" {
		baseLogger.Warn("no generator API key configured, AI features are disabled", "provider", cfg.Generator.Provider)
	} else {
		a.generator, err = provider.Default().Build(ctx, cfg.Generator, baseLogger)
		if err != nil {
			return nil, err
		}
	}

	if a.notifier, err = telegram.NewNotifier(cfg.Notifications.Telegram, loc, baseLogger); err != nil {
		return nil, err
	}
	mailer, err := mail.NewMailer(cfg.Mail, cfg.Author, loc, baseLogger)
	if err != nil {
		return nil, err
	}

	pipelineDeps := usecase.PipelineDeps{
		Articles: a.store,
		Index:    a.index,
		Notifier: a.notifier,
		Metrics:  a.metrics,
		Logger:   baseLogger.With("component", "pipeline"),
	}
	if a.generator != nil {
		pipelineDeps.Composer = composer.New(a.generator, composer.Options{
			Author:  cfg.Author,
			Timeout: cfg.Generator.Timeout,
			Picker:  topics.NewPicker(topics.All(), rand.IntN),
			Logger:  baseLogger.With("component", "composer"),
		})
	}
	a.pipeline = usecase.NewPipeline(pipelineDeps)

	timers := make(map[string]ports.Scheduler, len(usecase.Duties))
	for duty, spec := range cfg.Scheduler.CronSpecs() {
		timer, err := scheduler.NewCronScheduler(duty, spec, loc, baseLogger.With("component", "cron"))
		if err != nil {
			return nil, err
		}
		timers[duty] = timer
	}
	a.scheduler, err = usecase.NewBlogScheduler(schedulerConfig(cfg.Scheduler, loc), usecase.SchedulerDeps{
		Store:    a.store,
		Pipeline: a.pipeline,
		Timers:   timers,
		Metrics:  a.metrics,
		Logger:   baseLogger.With("component", "scheduler"),
	})
	if err != nil {
		return nil, err
	}

	a.server, err = web.NewServer(web.Options{
		Server: cfg.Server,
		Admin:  cfg.Admin,
		Author: cfg.Author,
	}, web.Deps{
		Store:     a.store,
		Index:     a.index,
		Notifier:  a.notifier,
		Mailer:    mailer,
		Generator: a.generator,
		Scheduler: a.scheduler,
		Metrics:   a.metrics,
		Logger:    baseLogger,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ports.ContentStore, error) {
	pool := storage.PoolConfig{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		ConnMaxLife:  cfg.ConnMaxLifetime,
	}
	var dialect storage.Dialect
	switch cfg.Driver {
	case config.DriverPostgres:
		dialect = storage.Postgres
	case config.DriverSQLite:
		dialect = storage.SQLite
	default:
		logger.Warn("using in-memory storage, content is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	store, err := storage.OpenSQL(ctx, dialect, cfg.DSN, pool, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready", "driver", dialect.Name)
	return store, nil
}

func schedulerConfig(cfg config.SchedulerConfig, loc *time.Location) usecase.SchedulerConfig {
	return usecase.SchedulerConfig{
		Location:        loc,
		DailyTarget:     cfg.DailyTarget,
		MaxPerFire:      cfg.MaxPerFire,
		BaseHour:        cfg.BaseHour,
		PacingDelay:     cfg.PacingDelay,
		RetentionMonths: cfg.RetentionMonths,
		CleanupLimit:    cfg.CleanupLimit,
		FollowUpLimit:   cfg.FollowUpLimit,
		FollowUpNote:    cfg.FollowUpNote,
	}
}

// Serve runs the HTTP server and, when enabled, the scheduler until ctx is
// cancelled or the listener fails. Shutdown waits for in-flight duty runs.
func (a *Application) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(a.server.Run)

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(seedDelay):
		}
		a.seed(ctx)
		if !a.cfg.Scheduler.Enabled {
			a.logger.Info("scheduler disabled by configuration")
			return nil
		}
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
		if err := a.notifier.NotifySystem(ctx, "Blog scheduler", "Avtomatik blog generatsiyasi ishga tushdi"); err != nil {
			a.logger.Warn("startup notification failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down")
		err := a.server.Shutdown(shutdownCtx)
		select {
		case <-a.scheduler.Stop(shutdownCtx).Done():
		case <-shutdownCtx.Done():
			a.logger.Warn("duty runs still active at shutdown deadline")
		}
		return err
	})

	return g.Wait()
}

// seed publishes the sample posts once, when the store has nothing published.
func (a *Application) seed(ctx context.Context) {
	if !a.cfg.Scheduler.SeedOnBoot || a.generator == nil {
		return
	}
	published := true
	existing, err := a.store.ListArticles(ctx, domain.ArticleFilter{Published: &published, Limit: 1})
	if err != nil {
		a.logger.Warn("seed check failed", "error", err)
		return
	}
	if len(existing) > 0 {
		return
	}
	created := a.scheduler.InitializeSampleContent(ctx)
	a.logger.Info("sample content initialized", "created", created)
}

// Generate produces count articles immediately. Drafts go through the
// scheduler's on-demand path; published posts are stamped with the
// current time.
func (a *Application) Generate(ctx context.Context, count int, publish bool) ([]domain.Article, error) {
	if a.generator == nil {
		return nil, errors.New("no generator API key configured")
	}
	if !publish {
		return a.scheduler.GenerateNow(ctx, count)
	}

	articles := make([]domain.Article, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 {
			if err := (usecase.SystemClock{}).Sleep(ctx, a.cfg.Scheduler.PacingDelay); err != nil {
				return articles, err
			}
		}
		at := time.Now()
		article, err := a.pipeline.Produce(ctx, usecase.GenerationRequest{PublishAt: &at, Trigger: metrics.TriggerManual})
		if err != nil {
			a.logger.Error("generation failed", "item", i+1, "error", err)
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// Close releases the store and the search index.
func (a *Application) Close() error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
