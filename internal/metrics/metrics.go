// Package metrics exposes Prometheus instrumentation for content generation and scheduling.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfoliocms"

// Trigger labels distinguish how an article generation was started.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerSeed     = "seed"
)

// Duty outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds every collector registered by the application.
type Metrics struct {
	registry *prometheus.Registry

	ArticlesGenerated  *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	GenerationLatency  *prometheus.HistogramVec
	DutyRuns           *prometheus.CounterVec
	LeadsFlagged       prometheus.Counter
	AnalyticsPruned    prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ArticlesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "articles_total",
			Help:      "Articles successfully generated and stored.",
		}, []string{"trigger"}),
		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "failures_total",
			Help:      "Generation attempts that failed at compose or persist time.",
		}, []string{"trigger"}),
		GenerationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Time spent in one text generation call.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 120},
		}, []string{"trigger"}),
		DutyRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "duty_runs_total",
			Help:      "Scheduler duty executions by outcome.",
		}, []string{"duty", "outcome"}),
		LeadsFlagged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "leads_flagged_total",
			Help:      "Leads stamped with a follow-up marker.",
		}),
		AnalyticsPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "analytics_pruned_total",
			Help:      "Analytics records removed by the cleanup duty.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "method", "code"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
