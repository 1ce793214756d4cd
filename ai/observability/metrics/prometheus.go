// Package metrics provides Prometheus metrics export for the cache
// subsystem.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports cache metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheErrors *prometheus.CounterVec

	matchLatency      prometheus.Histogram
	generationLatency prometheus.Histogram

	similarity prometheus.Histogram
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one).
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds).
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}
}

// NewExporter creates a new Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kaiwa",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"scenario_id"},
	)
	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kaiwa",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"scenario_id"},
	)
	e.cacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kaiwa",
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Total number of failed cache requests",
		},
		[]string{"scenario_id", "kind"},
	)
	e.matchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kaiwa",
			Subsystem: "cache",
			Name:      "match_latency_seconds",
			Help:      "Pattern matching latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)
	e.generationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kaiwa",
			Subsystem: "cache",
			Name:      "generation_latency_seconds",
			Help:      "External generation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)
	e.similarity = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kaiwa",
			Subsystem: "cache",
			Name:      "hit_similarity",
			Help:      "Similarity score distribution over cache hits",
			Buckets:   []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 0.99, 1},
		},
	)

	registry.MustRegister(
		e.cacheHits,
		e.cacheMisses,
		e.cacheErrors,
		e.matchLatency,
		e.generationLatency,
		e.similarity,
	)
	return e
}

// RecordHit records a cache hit with its similarity score.
func (e *Exporter) RecordHit(scenarioID string, similarity float64) {
	if e == nil {
		return
	}
	e.cacheHits.WithLabelValues(scenarioID).Inc()
	e.similarity.Observe(similarity)
}

// RecordMiss records a cache miss.
func (e *Exporter) RecordMiss(scenarioID string) {
	if e == nil {
		return
	}
	e.cacheMisses.WithLabelValues(scenarioID).Inc()
}

// RecordError records a failed request by error kind.
func (e *Exporter) RecordError(scenarioID, kind string) {
	if e == nil {
		return
	}
	e.cacheErrors.WithLabelValues(scenarioID, kind).Inc()
}

// ObserveMatchLatency records the time spent in the match engine.
func (e *Exporter) ObserveMatchLatency(seconds float64) {
	if e == nil {
		return
	}
	e.matchLatency.Observe(seconds)
}

// ObserveGenerationLatency records the external generation call time.
func (e *Exporter) ObserveGenerationLatency(seconds float64) {
	if e == nil {
		return
	}
	e.generationLatency.Observe(seconds)
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
