// Package metrics provides Prometheus metrics for the attendance monitor.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the Prometheus metrics of the monitor.
type Manager struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry

	// Check-run metrics.
	runsTotal      prometheus.Counter
	runFailures    prometheus.Counter
	runDuration    prometheus.Histogram
	coursesChecked prometheus.Gauge

	// Alerting metrics.
	alertsEmitted  *prometheus.CounterVec
	dispatchErrors prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// NewManager creates a metrics manager on its own registry, keeping the
// default Go collectors out of the scrape output.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "attendance",
		subsystem: "monitor",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "check_runs_total",
		Help:      "Total number of attendance check runs started",
	})
	m.runFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "check_run_failures_total",
		Help:      "Total number of attendance check runs that failed",
	})
	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "check_run_duration_seconds",
		Help:      "Histogram of attendance check run duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	m.coursesChecked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "courses_checked",
		Help:      "Number of courses returned by the last portal fetch",
	})
	m.alertsEmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_emitted_total",
		Help:      "Total number of change alerts emitted, by change status",
	}, []string{"status"})
	m.dispatchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_errors_total",
		Help:      "Total number of notification deliveries that failed",
	})

	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun records one completed check run.
func (m *Manager) RecordRun(duration time.Duration, courses int, failed bool) {
	m.runsTotal.Inc()
	if failed {
		m.runFailures.Inc()
	}
	m.runDuration.Observe(duration.Seconds())
	m.coursesChecked.Set(float64(courses))
}

// RecordAlert records one emitted alert with its change status label.
func (m *Manager) RecordAlert(status string) {
	m.alertsEmitted.WithLabelValues(status).Inc()
}

// RecordDispatchError records one failed notification delivery.
func (m *Manager) RecordDispatchError() {
	m.dispatchErrors.Inc()
}
