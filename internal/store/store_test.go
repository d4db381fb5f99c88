package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

func sampleOutcome() *evaluation.Outcome {
	return &evaluation.Outcome{
		Documents: 3,
		Result: evaluation.MetricResult{
			K: 10,
			Queries: []evaluation.QueryMetrics{
				{QueryID: "1", MRR: 1, MAP: 0.8333, Recall: 1},
				{QueryID: "2", Err: errors.New("scoring document 7: dimension mismatch")},
			},
			Summary: evaluation.Summary{MRR: 0.5, MAP: 0.41665, Recall: 0.5, Queries: 2, Failed: 1},
		},
	}
}

func TestNewRunRecordsFailures(t *testing.T) {
	r := NewRun("id", time.Unix(0, 0), "cosine", "tf-idf", "", sampleOutcome())
	if r.Documents != 3 || r.K != 10 || r.Summary.Failed != 1 {
		t.Errorf("run = %+v", r)
	}
	if r.Failures["2"] == "" || len(r.Failures) != 1 {
		t.Errorf("failures = %v", r.Failures)
	}
	if r.CreatedAt.Location() != time.UTC {
		t.Error("timestamps should be stored in UTC")
	}
}

// openTestDB connects to the database named by VSM_TEST_POSTGRES_DSN or skips.
func openTestDB(t *testing.T) *postgres.Client {
	t.Helper()
	dsn := os.Getenv("VSM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VSM_TEST_POSTGRES_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return postgres.FromDB(db)
}

func TestStoreRoundTrip(t *testing.T) {
	s := New(openTestDB(t))
	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	id := uuid.NewString()
	if err := s.SaveRun(ctx, NewRun(id, time.Now(), "cosine", "tf-idf", "concatenate", sampleOutcome())); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.MRR != 0.5 || len(got.Queries) != 2 || got.Failures["2"] == "" {
		t.Errorf("loaded run = %+v", got)
	}
	runs, err := s.ListRuns(ctx, 5)
	if err != nil || len(runs) == 0 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}
	if _, err := s.GetRun(ctx, uuid.NewString()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := s.SaveSnapshot(ctx, analytics.AggregatedStats{TotalSearches: 7}); err != nil {
		t.Fatal(err)
	}
	snap, err := s.LatestSnapshot(ctx)
	if err != nil || snap == nil || snap.TotalSearches != 7 {
		t.Errorf("snapshot = %+v, %v", snap, err)
	}
}
