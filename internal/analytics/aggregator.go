package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
)

type AggregatedStats struct {
	TotalSearches     int64            `json:"total_searches"`
	ByType            map[string]int64 `json:"by_type"`
	ByMethod          map[string]int64 `json:"by_method"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	FeedbackTermsAvg  float64          `json:"feedback_terms_avg"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	P50LatencyMs      int64            `json:"p50_latency_ms"`
	P95LatencyMs      int64            `json:"p95_latency_ms"`
	P99LatencyMs      int64            `json:"p99_latency_ms"`
	TopQueries        []QueryCount     `json:"top_queries"`
	ZeroResultQueries []QueryCount     `json:"zero_result_queries"`
	TopDocuments      []QueryCount     `json:"top_documents"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
	Evaluations       int64            `json:"evaluations"`
	LastEvaluation    *EvaluationEvent `json:"last_evaluation,omitempty"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// maxLatencySamples bounds memory; older samples are overwritten.
const maxLatencySamples = 10000

// Aggregator folds search and evaluation events into in-memory statistics.
// It is fed either directly (in-process Tracker) or from Kafka via Handle.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	byType            map[string]int64
	byMethod          map[string]int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	feedbackSearches  int64
	feedbackTerms     int64
	latencies         []int64
	nextLatency       int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	topDocuments      map[string]int64
	evaluations       int64
	lastEvaluation    *EvaluationEvent
	startTime         time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byType:            make(map[string]int64),
		byMethod:          make(map[string]int64),
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		topDocuments:      make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Handle is a kafka.MessageHandler. Undecodable messages are logged and
// skipped so they do not block the partition.
func (a *Aggregator) Handle(ctx context.Context, key, value []byte) error {
	switch string(key) {
	case KeyEvaluation:
		event, err := kafka.DecodeJSON[EvaluationEvent](value)
		if err != nil {
			a.logger.Error("failed to decode evaluation event", "error", err)
			return nil
		}
		a.TrackEvaluation(event)
	default:
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			a.logger.Error("failed to decode search event", "error", err)
			return nil
		}
		a.TrackSearch(event)
	}
	return nil
}

func (a *Aggregator) TrackSearch(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches++
	a.byType[string(event.Type)]++
	a.byMethod[event.Method]++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if event.Type == EventFeedback {
		a.feedbackSearches++
		a.feedbackTerms += int64(event.FeedbackTerms)
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.nextLatency] = event.LatencyMs
		a.nextLatency = (a.nextLatency + 1) % maxLatencySamples
	}
	if event.Query != "" {
		a.queryCounts[event.Query]++
	}
	if event.ZeroResult() {
		a.zeroResults++
		if event.Query != "" {
			a.zeroResultQueries[event.Query]++
		}
	} else if event.TopDocID != "" {
		a.topDocuments[event.TopDocID]++
	}
}

func (a *Aggregator) TrackEvaluation(event EvaluationEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.evaluations++
	if a.lastEvaluation == nil || !event.Timestamp.Before(a.lastEvaluation.Timestamp) {
		e := event
		a.lastEvaluation = &e
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		ByType:          copyCounts(a.byType),
		ByMethod:        copyCounts(a.byMethod),
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		Evaluations:     a.evaluations,
	}
	if a.lastEvaluation != nil {
		e := *a.lastEvaluation
		stats.LastEvaluation = &e
	}
	if a.feedbackSearches > 0 {
		stats.FeedbackTermsAvg = float64(a.feedbackTerms) / float64(a.feedbackSearches)
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	stats.TopDocuments = topN(a.topDocuments, 10)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n largest counts, ties ordered by key.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
