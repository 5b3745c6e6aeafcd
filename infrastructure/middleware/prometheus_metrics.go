// Package middleware provides cross-cutting concerns for the
// formation engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of run outcomes,
// balance quality, assignment throughput, and weight cache efficiency.
type PrometheusMetrics struct {
	runsTotal        *prometheus.CounterVec
	assignmentsTotal *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	maxDifference    prometheus.Gauge
	cacheLookups     *prometheus.CounterVec
	searchCandidates prometheus.Histogram
	genericCounters  *prometheus.CounterVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers all metrics with the given registerer. A nil registerer
// uses the global default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_runs_total",
				Help: "Total formation runs by outcome (complete, rejected, failed, cancelled).",
			},
			[]string{"outcome"},
		),
		assignmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_assignments_total",
				Help: "Total assignment decisions by pipeline phase.",
			},
			[]string{"phase"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "balance_run_duration_seconds",
				Help:    "Wall-clock duration of completed formation runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"quality"},
		),
		maxDifference: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "balance_max_difference",
				Help: "Max difference between team totals in the most recent run.",
			},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_weight_cache_lookups_total",
				Help: "Weight cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		searchCandidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_exact_search_candidates",
				Help:    "Complete assignments scored per exhaustive-search run.",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
		genericCounters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_engine_events_total",
				Help: "Engine events that have no dedicated metric.",
			},
			[]string{"event"},
		),
	}
}

// RecordLatency records the execution time of an operation.
func (p *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	if operation == "balance_run" {
		p.runDuration.WithLabelValues(labels["quality"]).Observe(duration.Seconds())
	}
}

// RecordCounter increments a counter metric.
func (p *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "balance_runs_total":
		p.runsTotal.WithLabelValues(labels["outcome"]).Add(value)
	case "assignments_total":
		p.assignmentsTotal.WithLabelValues(labels["phase"]).Add(value)
	case "weight_cache_lookups_total":
		p.cacheLookups.WithLabelValues(labels["result"]).Add(value)
	default:
		p.genericCounters.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge sets the current value of a gauge metric.
func (p *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	if metric == "balance_max_difference" {
		p.maxDifference.Set(value)
	}
}

// RecordHistogram records a value in a histogram.
func (p *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "exact_search_candidates" {
		p.searchCandidates.Observe(value)
	}
}
