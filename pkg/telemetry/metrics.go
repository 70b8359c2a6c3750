package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for reconciliation runs. A nil or
// disabled instance is a no-op so call sites never guard.
type Metrics struct {
	enabled bool

	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec

	identityActions *prometheus.CounterVec
	sudoerRewrites  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates the metrics collector. With enabled unset every record
// call is a no-op.
func NewMetrics(enabled bool) *Metrics {
	if !enabled {
		return &Metrics{}
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		enabled:  true,
		registry: registry,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provisd",
				Name:      "runs_total",
				Help:      "Reconciliation runs by command and outcome",
			},
			[]string{"command", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "provisd",
				Name:      "run_duration_seconds",
				Help:      "Reconciliation run duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		identityActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provisd",
				Name:      "identity_actions_total",
				Help:      "Planned identity actions by kind",
			},
			[]string{"action"},
		),
		sudoerRewrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "provisd",
				Name:      "sudoer_rewrites_total",
				Help:      "Wholesale sudoer-file rewrites",
			},
		),
	}
	registry.MustRegister(m.runsTotal, m.runDuration, m.identityActions, m.sudoerRewrites)
	return m
}

// RecordRun records one finished run.
func (m *Metrics) RecordRun(command, status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.runsTotal.WithLabelValues(command, status).Inc()
	m.runDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordPlan records the action counts of a computed plan.
func (m *Metrics) RecordPlan(add, update, del int) {
	if !m.enabled {
		return
	}
	m.identityActions.WithLabelValues("add").Add(float64(add))
	m.identityActions.WithLabelValues("update").Add(float64(update))
	m.identityActions.WithLabelValues("delete").Add(float64(del))
}

// RecordSudoerRewrite counts one sudoer-file rewrite.
func (m *Metrics) RecordSudoerRewrite() {
	if !m.enabled {
		return
	}
	m.sudoerRewrites.Inc()
}

// Handler exposes the scrape endpoint, used by watch mode.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
