package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

// CronScheduler fires one job on a standard five-field cron spec evaluated
// in a fixed timezone.
type CronScheduler struct {
	mu       sync.Mutex
	duty     string
	spec     string
	loc      *time.Location
	schedule cron.Schedule
	logger   *slog.Logger

	cron     *cron.Cron
	lastStop context.Context
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses spec up front so a bad cadence fails at startup.
func NewCronScheduler(duty, spec string, loc *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	if loc == nil {
		return nil, &domain.SchedulingConfigError{Duty: duty, Spec: spec, Err: fmt.Errorf("timezone is not set")}
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, &domain.SchedulingConfigError{Duty: duty, Spec: spec, Err: err}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{
		duty:     duty,
		spec:     spec,
		loc:      loc,
		schedule: schedule,
		logger:   logger,
	}, nil
}

// Start arms the timer. Calling it on a running scheduler is a no-op.
// The timer also stops when ctx is cancelled.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	log := cronLogger{logger: c.logger.With("duty", c.duty)}
	c.cron = cron.New(
		cron.WithLocation(c.loc),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	c.cron.Schedule(c.schedule, cron.FuncJob(func() {
		job(time.Now().In(c.loc))
	}))
	c.cron.Start()

	running := c.cron
	go func() {
		<-ctx.Done()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.cron == running {
			c.stopLocked()
		}
	}()
	return nil
}

// Stop disarms the timer and returns a context that is done once a job
// that was already running has returned.
func (c *CronScheduler) Stop(context.Context) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		if c.lastStop != nil {
			return c.lastStop
		}
		done, cancel := context.WithCancel(context.Background())
		cancel()
		return done
	}
	return c.stopLocked()
}

// Running reports whether the timer is armed.
func (c *CronScheduler) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cron != nil
}

// Next returns the next fire time after t.
func (c *CronScheduler) Next(t time.Time) time.Time {
	return c.schedule.Next(t.In(c.loc))
}

// Spec returns the cron expression the scheduler was built with.
func (c *CronScheduler) Spec() string { return c.spec }

func (c *CronScheduler) stopLocked() context.Context {
	c.lastStop = c.cron.Stop()
	c.cron = nil
	return c.lastStop
}

// cronLogger routes cron's internal logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
