package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/metrics"
	"PortfolioCMS/internal/ports"
	"PortfolioCMS/internal/topics"
)

// Duty names double as timer names.
const (
	DutyBlogGeneration = "blogGeneration"
	DutyCleanup        = "cleanup"
	DutyLeadFollowup   = "leadFollowup"
)

// Duties lists every duty in start order.
var Duties = []string{DutyBlogGeneration, DutyCleanup, DutyLeadFollowup}

var (
	// ErrUnknownDuty is returned by RunDuty for names outside Duties.
	ErrUnknownDuty = errors.New("unknown scheduler duty")
	// ErrDutyRunning is returned when the same duty is already executing.
	ErrDutyRunning = errors.New("duty is already running")

	errSkipped = errors.New("nothing to do")
)

// SchedulerConfig holds the policy knobs of the three duties.
type SchedulerConfig struct {
	Location        *time.Location
	DailyTarget     int
	MaxPerFire      int
	BaseHour        int
	PacingDelay     time.Duration
	RetentionMonths int
	CleanupLimit    int
	FollowUpLimit   int
	FollowUpNote    string
}

// DefaultSchedulerConfig mirrors the production cadence policy.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Location:        time.UTC,
		DailyTarget:     12,
		MaxPerFire:      2,
		BaseHour:        8,
		PacingDelay:     3 * time.Second,
		RetentionMonths: 6,
		CleanupLimit:    1000,
		FollowUpLimit:   50,
		FollowUpNote:    "Avtomatik follow-up eslatmasi",
	}
}

func (c SchedulerConfig) validate() error {
	switch {
	case c.Location == nil:
		return &domain.SchedulingConfigError{Err: errors.New("timezone is not set")}
	case c.DailyTarget < 0:
		return &domain.SchedulingConfigError{Duty: DutyBlogGeneration, Err: fmt.Errorf("daily target %d is negative", c.DailyTarget)}
	case c.MaxPerFire < 1:
		return &domain.SchedulingConfigError{Duty: DutyBlogGeneration, Err: fmt.Errorf("max per fire %d must be positive", c.MaxPerFire)}
	case c.BaseHour < 0 || c.BaseHour > 23:
		return &domain.SchedulingConfigError{Duty: DutyBlogGeneration, Err: fmt.Errorf("base hour %d is outside 0..23", c.BaseHour)}
	case c.RetentionMonths < 1:
		return &domain.SchedulingConfigError{Duty: DutyCleanup, Err: fmt.Errorf("retention of %d months must be positive", c.RetentionMonths)}
	}
	return nil
}

// DutyStore is the part of the content store the periodic duties use.
// Cleanup additionally deletes when the store implements ports.AnalyticsPruner.
type DutyStore interface {
	ListArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
	UpdateLead(ctx context.Context, id int64, patch domain.LeadPatch) (domain.Lead, error)
	ListAnalytics(ctx context.Context, filter domain.AnalyticsFilter) ([]domain.AnalyticsRecord, error)
}

// SchedulerDeps wires the scheduler collaborators.
type SchedulerDeps struct {
	Store    DutyStore
	Pipeline *Pipeline
	// Timers maps every duty name to the driver that fires it.
	Timers  map[string]ports.Scheduler
	Clock   Clock
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// BlogScheduler owns the recurring duties and the on-demand generation path.
type BlogScheduler struct {
	cfg      SchedulerConfig
	store    DutyStore
	pipeline *Pipeline
	timers   map[string]ports.Scheduler
	clock    Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger

	duties   map[string]func(context.Context) error
	busy     map[string]*sync.Mutex
	inflight sync.WaitGroup
}

// NewBlogScheduler validates the configuration and returns an idle scheduler.
func NewBlogScheduler(cfg SchedulerConfig, deps SchedulerDeps) (*BlogScheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	for _, name := range Duties {
		if deps.Timers[name] == nil {
			return nil, &domain.SchedulingConfigError{Duty: name, Err: errors.New("no timer configured")}
		}
	}
	if deps.Store == nil || deps.Pipeline == nil {
		return nil, errors.New("scheduler requires a store and a generation pipeline")
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &BlogScheduler{
		cfg:      cfg,
		store:    deps.Store,
		pipeline: deps.Pipeline,
		timers:   deps.Timers,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		busy:     map[string]*sync.Mutex{},
	}
	s.duties = map[string]func(context.Context) error{
		DutyBlogGeneration: s.generateScheduled,
		DutyCleanup:        s.cleanupOldData,
		DutyLeadFollowup:   s.flagLeadFollowups,
	}
	for _, name := range Duties {
		s.busy[name] = &sync.Mutex{}
	}
	return s, nil
}

// Start arms every timer. Timers that are already running are left alone.
func (s *BlogScheduler) Start(ctx context.Context) error {
	// fires must outlive a cancelled parent so an in-flight batch can finish
	runCtx := context.WithoutCancel(ctx)
	for _, name := range Duties {
		job := func(time.Time) { _ = s.runDuty(runCtx, name) }
		if err := s.timers[name].Start(ctx, job); err != nil {
			return fmt.Errorf("start %s timer: %w", name, err)
		}
		s.logger.Info("schedule started", "duty", name)
	}
	return nil
}

// Stop disarms every timer. The returned context is done once all duty
// runs that were already executing have returned.
func (s *BlogScheduler) Stop(ctx context.Context) context.Context {
	done := make([]context.Context, 0, len(Duties))
	for _, name := range Duties {
		done = append(done, s.timers[name].Stop(ctx))
		s.logger.Info("schedule stopped", "duty", name)
	}

	waitCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		for _, d := range done {
			<-d.Done()
		}
		s.inflight.Wait()
		cancel()
	}()
	return waitCtx
}

// Status reports whether each named timer is armed.
func (s *BlogScheduler) Status() map[string]bool {
	status := make(map[string]bool, len(Duties))
	for _, name := range Duties {
		status[name] = s.timers[name].Running()
	}
	return status
}

// RunDuty executes one duty immediately, outside its cadence.
func (s *BlogScheduler) RunDuty(ctx context.Context, name string) error {
	if _, ok := s.duties[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDuty, name)
	}
	return s.runDuty(ctx, name)
}

// runDuty is the error boundary around every duty body: panics and errors
// are logged and counted, never propagated to the timer.
func (s *BlogScheduler) runDuty(ctx context.Context, name string) (err error) {
	lock := s.busy[name]
	if !lock.TryLock() {
		s.logger.Warn("duty still running, skipping fire", "duty", name)
		return ErrDutyRunning
	}
	defer lock.Unlock()

	s.inflight.Add(1)
	defer s.inflight.Done()

	logger := s.logger.With("duty", name)
	started := s.clock.Now()
	logger.Info("duty started")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("duty %s panicked: %v", name, r)
		}
		outcome := metrics.OutcomeOK
		switch {
		case errors.Is(err, errSkipped):
			outcome = metrics.OutcomeSkipped
			err = nil
		case err != nil:
			outcome = metrics.OutcomeFailed
			logger.Error("duty failed", "error", err)
		}
		s.metrics.DutyRuns.WithLabelValues(name, outcome).Inc()
		logger.Info("duty finished", "outcome", outcome, "elapsed", s.clock.Now().Sub(started))
	}()

	return s.duties[name](ctx)
}

func (s *BlogScheduler) generateScheduled(ctx context.Context) error {
	now := s.clock.Now().In(s.cfg.Location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	published := true
	today, err := s.store.ListArticles(ctx, domain.ArticleFilter{
		Published:     &published,
		PublishedFrom: &dayStart,
		PublishedTo:   &dayEnd,
	})
	if err != nil {
		return domain.WrapStorage("count articles published today", err)
	}

	countToday := len(today)
	remaining := max(0, s.cfg.DailyTarget-countToday)
	if remaining == 0 {
		s.logger.Info("daily target reached, skipping", "published_today", countToday, "target", s.cfg.DailyTarget)
		return errSkipped
	}

	batch := min(s.cfg.MaxPerFire, remaining)
	s.logger.Info("generating scheduled posts", "batch", batch, "published_today", countToday)

	var failures []error
	created := 0
	for i := 0; i < batch; i++ {
		if i > 0 {
			if err := s.clock.Sleep(ctx, s.cfg.PacingDelay); err != nil {
				failures = append(failures, err)
				break
			}
		}

		publishAt := s.publishSlot(dayStart, countToday+i)
		article, err := s.pipeline.Produce(ctx, GenerationRequest{PublishAt: &publishAt, Trigger: metrics.TriggerSchedule})
		if err != nil {
			s.logger.Error("scheduled generation failed", "item", i+1, "error", err)
			failures = append(failures, err)
			continue
		}
		created++
		s.logger.Info("generated and scheduled", "title", article.Title, "slug", article.Slug, "published_at", publishAt)
	}

	if created == 0 && len(failures) > 0 {
		return fmt.Errorf("no article generated in batch of %d: %w", batch, errors.Join(failures...))
	}
	return nil
}

// publishSlot places the n-th article of the day one hour after the
// previous one, starting at the base hour and never past 23:00.
func (s *BlogScheduler) publishSlot(dayStart time.Time, n int) time.Time {
	hour := min(s.cfg.BaseHour+n, 23)
	return time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), hour, 0, 0, 0, s.cfg.Location)
}

func (s *BlogScheduler) cleanupOldData(ctx context.Context) error {
	cutoff := s.clock.Now().In(s.cfg.Location).AddDate(0, -s.cfg.RetentionMonths, 0)

	old, err := s.store.ListAnalytics(ctx, domain.AnalyticsFilter{DateTo: &cutoff, Limit: s.cfg.CleanupLimit})
	if err != nil {
		return domain.WrapStorage("list old analytics", err)
	}
	s.logger.Info("old analytics found", "count", len(old), "cutoff", cutoff)
	if len(old) == 0 {
		return errSkipped
	}

	pruner, ok := s.store.(ports.AnalyticsPruner)
	if !ok {
		s.logger.Info("store cannot delete analytics, nothing removed")
		return nil
	}
	removed, err := pruner.DeleteAnalyticsUntil(ctx, cutoff)
	if err != nil {
		return domain.WrapStorage("delete old analytics", err)
	}
	s.metrics.AnalyticsPruned.Add(float64(removed))
	s.logger.Info("old analytics removed", "count", removed)
	return nil
}

func (s *BlogScheduler) flagLeadFollowups(ctx context.Context) error {
	leads, err := s.store.ListLeads(ctx, domain.LeadFilter{Status: domain.LeadNew, Limit: s.cfg.FollowUpLimit})
	if err != nil {
		return domain.WrapStorage("list new leads", err)
	}

	now := s.clock.Now()
	note := s.cfg.FollowUpNote
	flagged := 0
	for _, lead := range leads {
		if lead.AgeInDays(now) < 1 {
			continue
		}
		at := now
		if _, err := s.store.UpdateLead(ctx, lead.ID, domain.LeadPatch{FollowUpDate: &at, Notes: &note}); err != nil {
			s.logger.Error("mark lead for follow-up", "lead_id", lead.ID, "error", err)
			continue
		}
		flagged++
		s.logger.Info("lead marked for follow-up", "lead_id", lead.ID)
	}

	s.metrics.LeadsFlagged.Add(float64(flagged))
	if flagged == 0 {
		s.logger.Info("no leads need follow-up")
		return errSkipped
	}
	return nil
}

// GenerateNow produces count drafts right away, independent of the timers.
// Failed items are logged and left out; a short result is not an error.
func (s *BlogScheduler) GenerateNow(ctx context.Context, count int) ([]domain.Article, error) {
	drafts := make([]domain.Article, 0, max(count, 0))
	for i := 0; i < count; i++ {
		if i > 0 {
			if err := s.clock.Sleep(ctx, s.cfg.PacingDelay); err != nil {
				return drafts, err
			}
		}
		article, err := s.pipeline.Produce(ctx, GenerationRequest{Trigger: metrics.TriggerManual})
		if err != nil {
			s.logger.Error("manual generation failed", "item", i+1, "error", err)
			continue
		}
		s.logger.Info("generated draft", "title", article.Title, "slug", article.Slug)
		drafts = append(drafts, article)
	}
	return drafts, nil
}

// InitializeSampleContent publishes the fixed seed topics immediately. It
// ignores the daily target and is meant to run once after the store is ready.
func (s *BlogScheduler) InitializeSampleContent(ctx context.Context) int {
	created := 0
	for i, idea := range topics.Samples() {
		if i > 0 {
			if err := s.clock.Sleep(ctx, s.cfg.PacingDelay); err != nil {
				break
			}
		}
		at := s.clock.Now()
		article, err := s.pipeline.Produce(ctx, GenerationRequest{Idea: &idea, PublishAt: &at, Trigger: metrics.TriggerSeed})
		if err != nil {
			s.logger.Error("sample post failed", "topic", idea.Title, "error", err)
			continue
		}
		created++
		s.logger.Info("sample post created", "title", article.Title)
	}
	return created
}
