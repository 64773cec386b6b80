// Package metrics exposes Prometheus instrumentation for crawls, checks and
// audit runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all site auditor metrics.
	Namespace = "site_auditor"

	subsystemCrawler  = "crawler"
	subsystemAnalysis = "analysis"
	subsystemAudit    = "audit"
)

// Metrics holds all Prometheus collectors. Every method is a no-op on a
// nil *Metrics, so components can run uninstrumented.
type Metrics struct {
	FetchesTotal         *prometheus.CounterVec
	FetchDurationSeconds prometheus.Histogram
	RobotsBlockedTotal   prometheus.Counter
	LinksSkippedTotal    *prometheus.CounterVec

	FindingsTotal    *prometheus.CounterVec
	CheckErrorsTotal *prometheus.CounterVec

	RunTransitionsTotal *prometheus.CounterVec
	RunsRunning         prometheus.Gauge
	RunDurationSeconds  *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initCrawlerMetrics(factory)
	m.initAnalysisMetrics(factory)
	m.initAuditMetrics(factory)

	return m
}

func (m *Metrics) initCrawlerMetrics(factory promauto.Factory) {
	m.FetchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemCrawler,
			Name:      "fetches_total",
			Help:      "Total number of page fetches by outcome",
		},
		[]string{"outcome"},
	)

	m.FetchDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystemCrawler,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of successful page fetches including redirects",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	m.RobotsBlockedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemCrawler,
			Name:      "robots_blocked_total",
			Help:      "URLs skipped because robots.txt disallows them",
		},
	)

	m.LinksSkippedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemCrawler,
			Name:      "links_skipped_total",
			Help:      "Discovered links not enqueued, by reason",
		},
		[]string{"reason"},
	)
}

func (m *Metrics) initAnalysisMetrics(factory promauto.Factory) {
	m.FindingsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemAnalysis,
			Name:      "findings_total",
			Help:      "Findings emitted by checks",
		},
		[]string{"severity", "category"},
	)

	m.CheckErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemAnalysis,
			Name:      "check_errors_total",
			Help:      "Checks that returned an error or panicked",
		},
		[]string{"check"},
	)
}

func (m *Metrics) initAuditMetrics(factory promauto.Factory) {
	m.RunTransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemAudit,
			Name:      "run_transitions_total",
			Help:      "Audit run state transitions by target state",
		},
		[]string{"state"},
	)

	m.RunsRunning = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemAudit,
			Name:      "runs_running",
			Help:      "Audit runs currently crawling or analyzing",
		},
	)

	m.RunDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystemAudit,
			Name:      "run_duration_seconds",
			Help:      "Wall time of audit runs by final state",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 13), // 1s to ~68min
		},
		[]string{"state"},
	)
}

// ObserveFetch records a fetch outcome ("success" or a failure reason).
func (m *Metrics) ObserveFetch(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	if latency > 0 {
		m.FetchDurationSeconds.Observe(latency.Seconds())
	}
}

// RobotsBlocked counts one robots.txt skip.
func (m *Metrics) RobotsBlocked() {
	if m == nil {
		return
	}
	m.RobotsBlockedTotal.Inc()
}

// LinkSkipped counts one filtered link.
func (m *Metrics) LinkSkipped(reason string) {
	if m == nil {
		return
	}
	m.LinksSkippedTotal.WithLabelValues(reason).Inc()
}

// Finding counts one emitted finding.
func (m *Metrics) Finding(severity, category string) {
	if m == nil {
		return
	}
	m.FindingsTotal.WithLabelValues(severity, category).Inc()
}

// CheckError counts one failed check execution.
func (m *Metrics) CheckError(check string) {
	if m == nil {
		return
	}
	m.CheckErrorsTotal.WithLabelValues(check).Inc()
}

// RunTransition counts a run entering state.
func (m *Metrics) RunTransition(state string) {
	if m == nil {
		return
	}
	m.RunTransitionsTotal.WithLabelValues(state).Inc()
}

// RunStarted increments the running gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsRunning.Inc()
}

// RunFinished decrements the running gauge and records the duration.
func (m *Metrics) RunFinished(state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsRunning.Dec()
	m.RunDurationSeconds.WithLabelValues(state).Observe(elapsed.Seconds())
}
