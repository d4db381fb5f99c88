// Package evaluation measures ranking quality against binary relevance
// judgments with MRR@k, MAP@k and Recall@k.
package evaluation

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/judgments"
)

// RankFunc returns the ranked document identifiers for q, best first.
type RankFunc func(ctx context.Context, q collection.Query) ([]string, error)

// QueryMetrics holds one query's scores. Err is set when ranking failed; the
// scores are then zero.
type QueryMetrics struct {
	QueryID string  `json:"query_id"`
	MRR     float64 `json:"mrr"`
	MAP     float64 `json:"map"`
	Recall  float64 `json:"recall"`
	Err     error   `json:"-"`
}

// Summary holds the means across every evaluated query.
type Summary struct {
	MRR     float64 `json:"mrr"`
	MAP     float64 `json:"map"`
	Recall  float64 `json:"recall"`
	Queries int     `json:"queries"`
	Failed  int     `json:"failed"`
}

type MetricResult struct {
	K       int            `json:"k"`
	Queries []QueryMetrics `json:"queries"`
	Summary Summary        `json:"summary"`
}

// Metrics scores one ranking. Only the first k identifiers count. An empty
// relevant set scores zero on every metric.
func Metrics(relevant map[string]struct{}, ranked []string, k int) (mrr, ap, recall float64) {
	if len(relevant) == 0 || k <= 0 {
		return 0, 0, 0
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	var hits int
	var precisionSum float64
	seen := make(map[string]struct{}, len(ranked))
	for i, id := range ranked {
		if _, ok := relevant[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		hits++
		if hits == 1 {
			mrr = 1 / float64(i+1)
		}
		precisionSum += float64(hits) / float64(i+1)
	}
	ap = precisionSum / float64(min(len(relevant), k))
	recall = float64(hits) / float64(len(relevant))
	return mrr, ap, recall
}

// Evaluate ranks every query with rank and scores it against set. A query
// whose ranking fails is recorded with its error and zero scores; it still
// counts towards the means. The returned error is non-nil only when ctx ends
// before all queries are processed.
func Evaluate(ctx context.Context, queries []collection.Query, set judgments.Set, rank RankFunc, k, workers int) (MetricResult, error) {
	logger := slog.Default().With("component", "evaluation")
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]QueryMetrics, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m := QueryMetrics{QueryID: q.ID}
			ranked, err := rank(gctx, q)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				m.Err = err
				out[i] = m
				return nil
			}
			m.MRR, m.MAP, m.Recall = Metrics(set.Relevant(q.ID), ranked, k)
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MetricResult{}, err
	}

	res := MetricResult{K: k, Queries: out, Summary: summarize(out)}
	for _, m := range out {
		if m.Err != nil {
			logger.Warn("query evaluation failed", "query_id", m.QueryID, "error", m.Err)
		}
	}
	logger.Info("evaluation completed",
		"queries", res.Summary.Queries,
		"failed", res.Summary.Failed,
		"k", k,
		"mrr", res.Summary.MRR,
		"map", res.Summary.MAP,
		"recall", res.Summary.Recall,
	)
	return res, nil
}

func summarize(ms []QueryMetrics) Summary {
	s := Summary{Queries: len(ms)}
	if len(ms) == 0 {
		return s
	}
	for _, m := range ms {
		s.MRR += m.MRR
		s.MAP += m.MAP
		s.Recall += m.Recall
		if m.Err != nil {
			s.Failed++
		}
	}
	n := float64(len(ms))
	s.MRR /= n
	s.MAP /= n
	s.Recall /= n
	return s
}
