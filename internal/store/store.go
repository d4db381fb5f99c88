// Package store persists evaluation runs and analytics snapshots in
// PostgreSQL. Run details are kept as JSONB next to the headline metrics so
// history can be listed without decoding every run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
    id          UUID PRIMARY KEY,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    k           INTEGER NOT NULL,
    method      TEXT NOT NULL,
    weighting   TEXT NOT NULL,
    feedback    TEXT NOT NULL DEFAULT '',
    documents   INTEGER NOT NULL,
    queries     INTEGER NOT NULL,
    failed      INTEGER NOT NULL,
    mrr         DOUBLE PRECISION NOT NULL,
    map         DOUBLE PRECISION NOT NULL,
    recall      DOUBLE PRECISION NOT NULL,
    detail      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluation_runs_created_at_idx ON evaluation_runs (created_at DESC);
CREATE TABLE IF NOT EXISTS analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Run is one stored evaluation.
type Run struct {
	ID        string                    `json:"id"`
	CreatedAt time.Time                 `json:"created_at"`
	K         int                       `json:"k"`
	Method    string                    `json:"method"`
	Weighting string                    `json:"weighting"`
	Feedback  string                    `json:"feedback,omitempty"`
	Documents int                       `json:"documents"`
	Summary   evaluation.Summary        `json:"summary"`
	Queries   []evaluation.QueryMetrics `json:"queries,omitempty"`
	// Failures maps query id to the ranking error message.
	Failures map[string]string `json:"failures,omitempty"`
}

// NewRun flattens an evaluation outcome into a storable record.
func NewRun(id string, at time.Time, method, weighting, feedback string, out *evaluation.Outcome) Run {
	r := Run{
		ID:        id,
		CreatedAt: at.UTC(),
		K:         out.Result.K,
		Method:    method,
		Weighting: weighting,
		Feedback:  feedback,
		Documents: out.Documents,
		Summary:   out.Result.Summary,
		Queries:   out.Result.Queries,
	}
	for _, q := range out.Result.Queries {
		if q.Err != nil {
			if r.Failures == nil {
				r.Failures = make(map[string]string)
			}
			r.Failures[q.QueryID] = q.Err.Error()
		}
	}
	return r
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "evaluation-store"),
	}
}

// EnsureSchema creates the tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		return nil
	})
}

// SaveRun inserts r, retrying transient failures.
func (s *Store) SaveRun(ctx context.Context, r Run) error {
	detail, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling run %s: %w", r.ID, err)
	}
	err = resilience.Retry(ctx, "save-evaluation-run", resilience.RetryConfig{}, func() error {
		_, err := s.db.DB.ExecContext(ctx,
			`INSERT INTO evaluation_runs
			    (id, created_at, k, method, weighting, feedback, documents, queries, failed, mrr, map, recall, detail)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			r.ID, r.CreatedAt, r.K, r.Method, r.Weighting, r.Feedback, r.Documents,
			r.Summary.Queries, r.Summary.Failed, r.Summary.MRR, r.Summary.MAP, r.Summary.Recall, detail,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving evaluation run %s: %w", r.ID, err)
	}
	s.logger.Info("evaluation run saved", "run_id", r.ID, "mrr", r.Summary.MRR, "map", r.Summary.MAP)
	return nil
}

// ListRuns returns up to limit runs, newest first, without per-query detail.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, created_at, k, method, weighting, feedback, documents, queries, failed, mrr, map, recall
		 FROM evaluation_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing evaluation runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.K, &r.Method, &r.Weighting, &r.Feedback, &r.Documents,
			&r.Summary.Queries, &r.Summary.Failed, &r.Summary.MRR, &r.Summary.MAP, &r.Summary.Recall); err != nil {
			return nil, fmt.Errorf("scanning evaluation run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads one run with its per-query detail.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var detail []byte
	err := s.db.DB.QueryRowContext(ctx, `SELECT detail FROM evaluation_runs WHERE id = $1`, id).Scan(&detail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.ErrNotFound, id, "evaluation run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading evaluation run %s: %w", id, err)
	}
	var r Run
	if err := json.Unmarshal(detail, &r); err != nil {
		return nil, fmt.Errorf("decoding evaluation run %s: %w", id, err)
	}
	return &r, nil
}

// SaveSnapshot persists an analytics stats snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
		data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved", "total_searches", stats.TotalSearches)
	return nil
}

// LatestSnapshot returns nil, nil when no snapshot exists yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// StartPeriodicSave snapshots agg every interval and once more when ctx ends.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.SaveSnapshot(shutdownCtx, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
}
