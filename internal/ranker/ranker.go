// Package ranker scores a collection of document vectors against a query
// vector and returns the top-k hits in method order.
package ranker

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// minChunk keeps tiny collections on a single goroutine.
const minChunk = 256

// Hit is one ranked document. Position is its index in the input sequence.
type Hit struct {
	DocID    string  `json:"doc_id"`
	Position int     `json:"-"`
	Score    float64 `json:"score"`
}

// Result is an ordered, freshly allocated ranking.
type Result struct {
	Method similarity.Method `json:"method"`
	Hits   []Hit             `json:"results"`
}

// IDs returns the document identifiers in rank order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.DocID
	}
	return ids
}

func (r Result) Len() int {
	return len(r.Hits)
}

// Ranker fans per-document scoring out over a bounded worker pool.
type Ranker struct {
	workers int
}

// New returns a Ranker using at most workers goroutines. Non-positive values
// fall back to GOMAXPROCS.
func New(workers int) *Ranker {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{workers: workers}
}

// Rank scores every document against query and keeps the best
// min(k, len(docs)). Ties keep input order. docs and ids must be aligned.
func (r *Ranker) Rank(
	ctx context.Context,
	query weighting.Vector,
	docs []weighting.Vector,
	ids []string,
	method similarity.Method,
	k int,
) (Result, error) {
	if len(docs) != len(ids) {
		return Result{}, apperrors.Newf(apperrors.ErrInvalidInput, "",
			"%d document vectors but %d identifiers", len(docs), len(ids))
	}
	result := Result{Method: method, Hits: []Hit{}}
	if k <= 0 || len(docs) == 0 {
		return result, nil
	}
	scores, err := r.score(ctx, query, docs, ids, method)
	if err != nil {
		return Result{}, err
	}
	result.Hits = topK(scores, ids, method, k)
	return result, nil
}

func (r *Ranker) score(
	ctx context.Context,
	query weighting.Vector,
	docs []weighting.Vector,
	ids []string,
	method similarity.Method,
) ([]float64, error) {
	scores := make([]float64, len(docs))
	chunk := (len(docs) + r.workers - 1) / r.workers
	if chunk < minChunk {
		chunk = minChunk
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for start := 0; start < len(docs); start += chunk {
		end := min(start+chunk, len(docs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				s, err := method.Score(query, docs[i])
				if err != nil {
					return fmt.Errorf("scoring document %s: %w", ids[i], err)
				}
				scores[i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Format writes the human-readable listing of a ranking.
func Format(w io.Writer, result Result) error {
	if _, err := fmt.Fprintln(w, "DocID Score"); err != nil {
		return err
	}
	for _, h := range result.Hits {
		if _, err := fmt.Fprintf(w, "%s  %.7f\n", h.DocID, h.Score); err != nil {
			return err
		}
	}
	return nil
}
