// Package metrics defines the Prometheus collectors for the retrieval engine
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SearchesTotal      *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter

	FeedbackExpansionsTotal *prometheus.CounterVec
	FeedbackTermsCount      prometheus.Histogram

	CollectionDocuments prometheus.Gauge
	VocabularySize      prometheus.Gauge

	EvaluationRunsTotal *prometheus.CounterVec
	EvaluationScore     *prometheus.GaugeVec
	EventsDroppedTotal  prometheus.Counter
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_searches_total",
				Help: "Total searches by similarity method, weighting and outcome (ok, empty, error).",
			},
			[]string{"method", "weighting", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vsm_search_latency_seconds",
				Help:    "Search latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vsm_search_results_count",
				Help:    "Number of ranked hits returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		FeedbackExpansionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_feedback_expansions_total",
				Help: "Total pseudo-relevance feedback expansions by strategy.",
			},
			[]string{"strategy"},
		),
		FeedbackTermsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vsm_feedback_terms_count",
				Help:    "Number of feedback terms added per expansion.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		CollectionDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vsm_collection_documents",
				Help: "Number of documents in the loaded collection.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vsm_vocabulary_size",
				Help: "Number of distinct terms in the loaded collection.",
			},
		),
		EvaluationRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_evaluation_runs_total",
				Help: "Total evaluation runs by status.",
			},
			[]string{"status"},
		),
		EvaluationScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vsm_evaluation_score",
				Help: "Mean score of the latest evaluation run by metric (mrr, map, recall).",
			},
			[]string{"metric"},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_events_dropped_total",
				Help: "Search events dropped because the publish buffer was full.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.FeedbackExpansionsTotal,
		m.FeedbackTermsCount,
		m.CollectionDocuments,
		m.VocabularySize,
		m.EvaluationRunsTotal,
		m.EvaluationScore,
		m.EventsDroppedTotal,
	)
	return m
}

// ObserveEvaluation records the means of a finished evaluation run.
func (m *Metrics) ObserveEvaluation(mrr, mapScore, recall float64) {
	m.EvaluationRunsTotal.WithLabelValues("ok").Inc()
	m.EvaluationScore.WithLabelValues("mrr").Set(mrr)
	m.EvaluationScore.WithLabelValues("map").Set(mapScore)
	m.EvaluationScore.WithLabelValues("recall").Set(recall)
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
