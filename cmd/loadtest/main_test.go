package main

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestNextRequestMix(t *testing.T) {
	cfg := Config{BaseURL: "http://svc", Queries: []string{"storm", "election"}, FeedbackEvery: 3, RelatedIDs: []string{"12"}}
	kinds := map[string]int{}
	methods := map[string]bool{}
	for i := range 28 {
		kind, target := nextRequest(cfg, i)
		kinds[kind]++
		u, err := url.Parse(target)
		if err != nil {
			t.Fatal(err)
		}
		methods[u.Query().Get("method")+"/"+u.Query().Get("weighting")] = true
		if kind == "related" && !strings.HasPrefix(u.Path, "/api/v1/related/12") {
			t.Errorf("related target = %s", target)
		}
		if kind == "feedback" && u.Query().Get("feedback") != "true" {
			t.Errorf("feedback target = %s", target)
		}
	}
	if kinds["search"] == 0 || kinds["feedback"] == 0 || kinds["related"] != 4 {
		t.Errorf("request mix = %v", kinds)
	}
	if len(methods) != 4 {
		t.Errorf("expected all four combinations, got %v", methods)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(sorted, 50); got != 5 {
		t.Errorf("p50 = %v", got)
	}
	if got := percentile(sorted, 99); got != 10 {
		t.Errorf("p99 = %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty = %v", got)
	}
}
