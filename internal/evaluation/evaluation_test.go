package evaluation

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/judgments"
)

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

func TestMetricsReferenceScenario(t *testing.T) {
	mrr, ap, recall := Metrics(set("D1", "D2"), []string{"D2", "D3", "D1"}, 10)
	if mrr != 1 {
		t.Errorf("MRR = %v, want 1", mrr)
	}
	if !near(ap, 0.8333) {
		t.Errorf("MAP = %v, want 0.8333", ap)
	}
	if recall != 1 {
		t.Errorf("Recall = %v, want 1", recall)
	}
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name                         string
		relevant                     map[string]struct{}
		ranked                       []string
		k                            int
		wantMRR, wantMAP, wantRecall float64
	}{
		{"no judgments", nil, []string{"D1"}, 10, 0, 0, 0},
		{"empty ranking", set("D1"), nil, 10, 0, 0, 0},
		{"outside cut-off", set("D3"), []string{"D1", "D2", "D3"}, 2, 0, 0, 0},
		{"second position", set("D2"), []string{"D1", "D2"}, 10, 0.5, 0.5, 1},
		{"partial recall", set("D1", "D9"), []string{"D1", "D2"}, 10, 1, 0.5, 0.5},
		{"map divides by k", set("a", "b", "c"), []string{"a", "b"}, 2, 1, 1, 2.0 / 3},
		{"zero k", set("D1"), []string{"D1"}, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mrr, ap, recall := Metrics(tt.relevant, tt.ranked, tt.k)
			if !near(mrr, tt.wantMRR) || !near(ap, tt.wantMAP) || !near(recall, tt.wantRecall) {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", mrr, ap, recall, tt.wantMRR, tt.wantMAP, tt.wantRecall)
			}
			for _, v := range []float64{mrr, ap, recall} {
				if v < 0 || v > 1 {
					t.Errorf("metric %v out of [0, 1]", v)
				}
			}
		})
	}
}

func TestEvaluateCountsEveryQuery(t *testing.T) {
	queries := []collection.Query{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	js := judgments.Set{"1": set("D1"), "3": set("D3")}
	rankErr := errors.New("boom")
	rank := func(_ context.Context, q collection.Query) ([]string, error) {
		switch q.ID {
		case "1":
			return []string{"D1"}, nil
		case "3":
			return nil, rankErr
		}
		return []string{"D2"}, nil
	}
	res, err := Evaluate(context.Background(), queries, js, rank, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Queries != 3 || res.Summary.Failed != 1 {
		t.Fatalf("summary = %+v", res.Summary)
	}
	if !near(res.Summary.MRR, 1.0/3) || !near(res.Summary.Recall, 1.0/3) {
		t.Errorf("means should include zero-scoring queries: %+v", res.Summary)
	}
	if !errors.Is(res.Queries[2].Err, rankErr) {
		t.Errorf("query 3 error = %v", res.Queries[2].Err)
	}
	if res.Queries[0].QueryID != "1" {
		t.Errorf("results must keep query order, got %s first", res.Queries[0].QueryID)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rank := func(ctx context.Context, _ collection.Query) ([]string, error) { return nil, ctx.Err() }
	if _, err := Evaluate(ctx, []collection.Query{{ID: "1"}}, nil, rank, 10, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunAndReport(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"collection/News1.txt": "typhoon storm hits the coast",
		"collection/News2.txt": "election campaign rally",
		"collection/News3.txt": "storm damage along the coast",
		"queries/q1.txt":       "coastal storm",
		"queries/q2.txt":       "election",
		"rel.tsv":              "q1\t['d1', 'd3']\nq2\t['d2']\nbroken line\n",
	})
	paths := Paths{
		Documents: filepath.Join(root, "collection"),
		Queries:   filepath.Join(root, "queries"),
		Judgments: filepath.Join(root, "rel.tsv"),
	}
	opts := Options{Params: collection.DefaultParams(), Workers: 2, Analyzer: analyzer.NewEnglish()}
	out, err := Run(context.Background(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	if out.Documents != 3 || out.Result.Summary.Queries != 2 {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Problems) != 1 {
		t.Errorf("expected the broken judgment line as a problem, got %v", out.Problems)
	}
	if out.Result.Summary.MRR != 1 {
		t.Errorf("MRR = %v, want 1", out.Result.Summary.MRR)
	}

	var buf bytes.Buffer
	if err := Report(&buf, out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"MRR@10: 1.0000", "Number of documents in collection: 3", "Recall@10: 1.0000"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("report missing %q:\n%s", want, buf.String())
		}
	}

	fb := feedback.DefaultConfig()
	opts.Feedback = &fb
	if _, err := Run(context.Background(), paths, opts); err != nil {
		t.Fatalf("feedback run: %v", err)
	}
}

func TestRunMissingJudgments(t *testing.T) {
	_, err := Run(context.Background(), Paths{Judgments: filepath.Join(t.TempDir(), "none.tsv")}, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
}
