// Command loadtest drives a running `vsm serve` instance with a mix of
// searches, feedback searches and related-document lookups across every
// weighting and similarity combination, then reports throughput, latency
// percentiles and status codes.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -concurrency 20 -duration 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/corpus"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
	// FeedbackEvery sends every n-th request with feedback enabled; 0 disables.
	FeedbackEvery int
	// RelatedIDs are used for /related requests when non-empty.
	RelatedIDs []string
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	latenciesMu   sync.Mutex
	latencies     map[string][]time.Duration
	statusCodesMu sync.Mutex
	statusCodes   map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make(map[string][]time.Duration),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) RecordRequest(kind string, duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies[kind] = append(s.latencies[kind], duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	s.statusCodes[statusCode]++
	s.statusCodesMu.Unlock()
}

var combos = []struct{ method, weighting string }{
	{"cosine", "tf"},
	{"euclidean", "tf"},
	{"cosine", "tf-idf"},
	{"euclidean", "tf-idf"},
}

var defaultQueries = []string{
	"Typhoon Taiwan war",
	"election campaign",
	"storm damage coast",
	"stock market inflation",
	"military exercise",
	"flood evacuation",
	"trade export tariff",
	"court ruling minister",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	queriesDir := flag.String("queries", "", "directory of query files to replay instead of the built-in set")
	feedbackEvery := flag.Int("feedback-every", 10, "send every n-th search with relevance feedback (0 disables)")
	related := flag.String("related", "", "comma-separated document ids for related-document requests")
	flag.Parse()

	queries := defaultQueries
	if *queriesDir != "" {
		entries, problems, err := corpus.LoadDir(*queriesDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading queries: %v\n", err)
			os.Exit(1)
		}
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "warning: %v\n", p)
		}
		queries = nil
		for _, e := range entries {
			queries = append(queries, e.Text)
		}
		if len(queries) == 0 {
			fmt.Fprintln(os.Stderr, "no queries found")
			os.Exit(1)
		}
	}

	cfg := Config{
		BaseURL:       strings.TrimRight(*baseURL, "/"),
		Concurrency:   *concurrency,
		Duration:      *duration,
		Queries:       queries,
		FeedbackEvery: *feedbackEvery,
	}
	if *related != "" {
		cfg.RelatedIDs = strings.Split(*related, ",")
	}

	fmt.Println("=== Vector Search Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	stats := runLoadTest(cfg)
	if !printReport(stats, cfg.Duration) {
		os.Exit(1)
	}
}

// nextRequest picks the i-th request of a worker's schedule.
func nextRequest(cfg Config, i int) (kind, target string) {
	c := combos[i%len(combos)]
	params := url.Values{}
	params.Set("method", c.method)
	params.Set("weighting", c.weighting)
	params.Set("k", "10")

	if len(cfg.RelatedIDs) > 0 && i%7 == 6 {
		id := cfg.RelatedIDs[(i/7)%len(cfg.RelatedIDs)]
		return "related", fmt.Sprintf("%s/api/v1/related/%s?%s", cfg.BaseURL, url.PathEscape(id), params.Encode())
	}
	params.Set("q", cfg.Queries[i%len(cfg.Queries)])
	kind = "search"
	if cfg.FeedbackEvery > 0 && i%cfg.FeedbackEvery == cfg.FeedbackEvery-1 {
		params.Set("feedback", "true")
		kind = "feedback"
	}
	return kind, fmt.Sprintf("%s/api/v1/search?%s", cfg.BaseURL, params.Encode())
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")
	for w := range cfg.Concurrency {
		wg.Go(func() {
			for i := w; ctx.Err() == nil; i += cfg.Concurrency {
				kind, target := nextRequest(cfg, i)
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					stats.RecordRequest(kind, 0, 0, err)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.RecordRequest(kind, elapsed, 0, err)
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.RecordRequest(kind, elapsed, resp.StatusCode, nil)
			}
		})
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

// printReport writes the summary and reports whether any request completed.
func printReport(stats *Stats, duration time.Duration) bool {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	failed := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %s\n", humanize.Comma(total))
	fmt.Printf("Successful:      %s\n", humanize.Comma(success))
	fmt.Printf("Errors:          %s\n", humanize.Comma(failed))
	if total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(failed)/float64(total)*100)
		fmt.Printf("Requests/sec:    %s\n", humanize.CommafWithDigits(float64(total)/duration.Seconds(), 2))
	}

	stats.latenciesMu.Lock()
	kinds := make([]string, 0, len(stats.latencies))
	for kind := range stats.latencies {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	for _, kind := range kinds {
		latencies := slices.Clone(stats.latencies[kind])
		slices.Sort(latencies)
		printLatency(kind, latencies)
	}
	stats.latenciesMu.Unlock()

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	stats.statusCodesMu.Lock()
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %s\n", code, humanize.Comma(stats.statusCodes[code]))
	}
	stats.statusCodesMu.Unlock()

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		return false
	}
	return true
}

func printLatency(kind string, sorted []time.Duration) {
	if len(sorted) == 0 {
		return
	}
	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	avg := sum / time.Duration(len(sorted))
	var sumSquared float64
	for _, l := range sorted {
		diff := float64(l - avg)
		sumSquared += diff * diff
	}

	fmt.Println()
	fmt.Printf("=== Latency: %s (%s requests) ===\n", kind, humanize.Comma(int64(len(sorted))))
	fmt.Printf("Min:    %s\n", sorted[0])
	fmt.Printf("Avg:    %s\n", avg)
	fmt.Printf("P50:    %s\n", percentile(sorted, 50))
	fmt.Printf("P90:    %s\n", percentile(sorted, 90))
	fmt.Printf("P95:    %s\n", percentile(sorted, 95))
	fmt.Printf("P99:    %s\n", percentile(sorted, 99))
	fmt.Printf("Max:    %s\n", sorted[len(sorted)-1])
	fmt.Printf("StdDev: %s\n", time.Duration(math.Sqrt(sumSquared/float64(len(sorted)))))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
