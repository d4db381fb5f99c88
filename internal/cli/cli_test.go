package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"collection/News1.txt": "typhoon storm hits the coast",
		"collection/News2.txt": "election campaign rally",
		"collection/News3.txt": "storm damage along the coast",
		"queries/q1.txt":       "storm coast",
		"queries/q2.txt":       "election",
		"rel.tsv":              "q1\t['d1', 'd3']\nq2\t['d2']\n",
	}
	for name, content := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("VSM_CORPUS_DOCUMENTS_DIR", filepath.Join(root, "collection"))
	t.Setenv("VSM_CORPUS_QUERIES_DIR", filepath.Join(root, "queries"))
	t.Setenv("VSM_CORPUS_JUDGMENTS_FILE", filepath.Join(root, "rel.tsv"))
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test", "abc", "today")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	writeCorpus(t)
	out, err := execute(t, "search", "--log-level", "error", "-k", "2", "election")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Collection: 3 documents") {
		t.Errorf("missing collection summary:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if got := lines[len(lines)-2]; !strings.HasPrefix(got, "2 ") {
		t.Errorf("top hit line = %q, want document 2", got)
	}
}

func TestSearchCommandJSON(t *testing.T) {
	writeCorpus(t)
	out, err := execute(t, "search", "-o", "json", "--log-level", "error", "--method", "euclidean", "storm")
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Method string `json:"method"`
		Hits   []struct {
			DocID string `json:"doc_id"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if resp.Method != "euclidean" || len(resp.Hits) != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchCommandRejectsUnknownMethod(t *testing.T) {
	writeCorpus(t)
	if _, err := execute(t, "search", "--log-level", "error", "--method", "jaccard", "storm"); err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func TestRetrievalConfigConversion(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	p, err := retrievalParams(cfg.Retrieval)
	if err != nil {
		t.Fatal(err)
	}
	if p.Method != similarity.Cosine || p.Scheme != weighting.TFIDF || p.K != 10 {
		t.Errorf("params = %+v", p)
	}
	fb, err := feedbackConfig(cfg.Retrieval)
	if err != nil {
		t.Fatal(err)
	}
	if fb.Strategy != feedback.Concatenate || fb.Weight != 0.5 {
		t.Errorf("feedback = %+v", fb)
	}
}

func TestLoadRejectsUnknownRetrievalSettings(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"method", "VSM_RETRIEVAL_METHOD", "manhattan"},
		{"weighting", "VSM_RETRIEVAL_WEIGHTING", "bm25"},
		{"strategy", "VSM_FEEDBACK_STRATEGY", "rocchio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeCorpus(t)
			t.Setenv(tt.key, tt.value)
			_, err := execute(t, "search", "--log-level", "error", "storm")
			if !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRelatedAndFeedbackCommands(t *testing.T) {
	writeCorpus(t)
	out, err := execute(t, "related", "--log-level", "error", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Documents related to 1") {
		t.Errorf("related output:\n%s", out)
	}
	if _, err := execute(t, "related", "--log-level", "error", "99"); err == nil {
		t.Error("expected an error for an unknown document")
	}
	if _, err := execute(t, "feedback", "--log-level", "error", "--strategy", "weighted-blend", "--weight", "0.3", "storm"); err != nil {
		t.Fatal(err)
	}
}

func TestEvaluateCommand(t *testing.T) {
	writeCorpus(t)
	out, err := execute(t, "evaluate", "--log-level", "error")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Number of queries processed: 2", "Number of documents in collection: 3", "MRR@10: 1.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
	if _, err := execute(t, "evaluate", "--log-level", "error", "--save"); err == nil {
		t.Error("--save without postgres should fail")
	}
}

func TestDemoCommand(t *testing.T) {
	writeCorpus(t)
	out, err := execute(t, "demo", "--log-level", "error", "--query", "storm coast", "-k", "2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"using Raw TF and Cosine similarity",
		"using Raw TF and Euclidean distance",
		"using TF-IDF and Cosine similarity",
		"using TF-IDF and Euclidean distance",
		"relevance feedback",
		"Running full evaluation",
		"MRR@2:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("demo output missing %q", want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "vsm test (abc)") {
		t.Errorf("version output = %q", out)
	}
}
