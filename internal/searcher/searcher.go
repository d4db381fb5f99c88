// Package searcher serves searches, related-document lookups, feedback
// expansion and evaluation runs over the currently loaded collection. The
// collection can be swapped atomically when the corpus is rebuilt; requests
// in flight keep the snapshot they started with.
package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

// RunStore persists evaluation runs; *store.Store implements it.
type RunStore interface {
	SaveRun(ctx context.Context, r store.Run) error
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetRun(ctx context.Context, id string) (*store.Run, error)
}

// Options wires the optional collaborators. Nil fields disable the feature.
type Options struct {
	Defaults collection.Params
	Feedback feedback.Config
	// Corpus locates queries and judgments for evaluation runs.
	Corpus  evaluation.Paths
	Workers int

	Cache   *cache.ResultCache
	Tracker analytics.Tracker
	Metrics *metrics.Metrics
	Runs    RunStore
}

type Service struct {
	coll atomic.Pointer[collection.Collection]
	opts Options
	now  func() time.Time
}

func New(coll *collection.Collection, opts Options) *Service {
	s := &Service{opts: opts, now: time.Now}
	s.Swap(context.Background(), coll)
	return s
}

// Collection returns the current snapshot.
func (s *Service) Collection() *collection.Collection { return s.coll.Load() }

func (s *Service) Defaults() collection.Params { return s.opts.Defaults }

// Swap installs coll and drops cached results of the collection it replaces.
func (s *Service) Swap(ctx context.Context, coll *collection.Collection) {
	old := s.coll.Swap(coll)
	if m := s.opts.Metrics; m != nil {
		m.CollectionDocuments.Set(float64(coll.Len()))
		m.VocabularySize.Set(float64(coll.Index().Size()))
	}
	if old == nil || old.Fingerprint() == coll.Fingerprint() {
		return
	}
	slog.Default().With("component", "searcher").Info("collection swapped",
		"old_fingerprint", old.Fingerprint(),
		"new_fingerprint", coll.Fingerprint(),
		"documents", coll.Len(),
	)
	if s.opts.Cache != nil {
		if _, err := s.opts.Cache.Invalidate(ctx, old.Fingerprint()); err != nil {
			logger.FromContext(ctx).Warn("dropping stale cache entries failed", "error", err)
		}
	}
}

type SearchRequest struct {
	Query    string
	Params   collection.Params
	Feedback bool
}

// Response is the JSON body of search, related and feedback requests.
type Response struct {
	Query         string       `json:"query,omitempty"`
	DocID         string       `json:"doc_id,omitempty"`
	Tokens        []string     `json:"tokens,omitempty"`
	Method        string       `json:"method"`
	Weighting     string       `json:"weighting"`
	K             int          `json:"k"`
	Hits          []ranker.Hit `json:"results"`
	FeedbackTerms []string     `json:"feedback_terms,omitempty"`
	CacheHit      bool         `json:"cache_hit"`
	LatencyMs     int64        `json:"latency_ms"`
}

// Search ranks the collection against req.Query. Feedback searches expand
// the query from the top document and are not cached, since the expansion
// terms are part of the response.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*Response, error) {
	start := s.now()
	coll := s.Collection()
	q := collection.NewQuery(coll.Analyzer(), "", req.Query)
	resp := &Response{
		Query:     req.Query,
		Tokens:    q.Tokens,
		Method:    req.Params.Method.String(),
		Weighting: req.Params.Scheme.String(),
		K:         req.Params.K,
	}

	var res ranker.Result
	var err error
	eventType := analytics.EventSearch
	switch {
	case req.Feedback:
		eventType = analytics.EventFeedback
		var exp *feedback.Expander
		exp, err = feedback.New(coll, coll.Analyzer(), s.opts.Feedback)
		if err != nil {
			break
		}
		var out *feedback.Outcome
		out, err = exp.Run(ctx, q, req.Params)
		if err == nil {
			res = out.Result
			resp.FeedbackTerms = out.Terms
			if m := s.opts.Metrics; m != nil {
				m.FeedbackExpansionsTotal.WithLabelValues(s.opts.Feedback.Strategy.String()).Inc()
				m.FeedbackTermsCount.Observe(float64(len(out.Terms)))
			}
		}
	case s.opts.Cache != nil:
		key := cache.Key{Fingerprint: coll.Fingerprint(), Kind: "search", Tokens: q.Tokens, Params: req.Params}
		res, resp.CacheHit, err = s.opts.Cache.GetOrCompute(ctx, key, func() (ranker.Result, error) {
			return coll.SearchQuery(ctx, q, req.Params)
		})
	default:
		res, err = coll.SearchQuery(ctx, q, req.Params)
	}
	if err != nil {
		s.observe(req.Params, "error", resp.CacheHit, start, 0)
		return nil, err
	}
	resp.Hits = res.Hits
	resp.LatencyMs = s.now().Sub(start).Milliseconds()
	s.finish(ctx, eventType, resp, start)
	return resp, nil
}

// Related ranks the collection against the vector of document docID.
func (s *Service) Related(ctx context.Context, docID string, p collection.Params) (*Response, error) {
	start := s.now()
	coll := s.Collection()
	resp := &Response{DocID: docID, Method: p.Method.String(), Weighting: p.Scheme.String(), K: p.K}

	var res ranker.Result
	var err error
	if s.opts.Cache != nil {
		key := cache.Key{Fingerprint: coll.Fingerprint(), Kind: "related", Tokens: []string{docID}, Params: p}
		res, resp.CacheHit, err = s.opts.Cache.GetOrCompute(ctx, key, func() (ranker.Result, error) {
			return coll.Related(ctx, docID, p)
		})
	} else {
		res, err = coll.Related(ctx, docID, p)
	}
	if err != nil {
		s.observe(p, "error", resp.CacheHit, start, 0)
		return nil, err
	}
	resp.Hits = res.Hits
	resp.LatencyMs = s.now().Sub(start).Milliseconds()
	s.finish(ctx, analytics.EventRelated, resp, start)
	return resp, nil
}

func (s *Service) finish(ctx context.Context, t analytics.EventType, resp *Response, start time.Time) {
	outcome := "ok"
	var top ranker.Hit
	if len(resp.Hits) == 0 {
		outcome = "empty"
	} else {
		top = resp.Hits[0]
	}
	if m := s.opts.Metrics; m != nil {
		m.SearchesTotal.WithLabelValues(resp.Method, resp.Weighting, outcome).Inc()
		m.SearchResultsCount.Observe(float64(len(resp.Hits)))
		m.SearchLatency.WithLabelValues(cacheStatus(resp.CacheHit)).Observe(s.now().Sub(start).Seconds())
		if s.opts.Cache != nil && t != analytics.EventFeedback {
			if resp.CacheHit {
				m.CacheHitsTotal.Inc()
			} else {
				m.CacheMissesTotal.Inc()
			}
		}
	}
	logger.FromContext(ctx).Info("search completed",
		"type", t,
		"query", resp.Query,
		"doc_id", resp.DocID,
		"method", resp.Method,
		"weighting", resp.Weighting,
		"returned", len(resp.Hits),
		"cache_hit", resp.CacheHit,
		"latency_ms", resp.LatencyMs,
	)
	if s.opts.Tracker != nil {
		query := resp.Query
		if t == analytics.EventRelated {
			query = "related:" + resp.DocID
		}
		s.opts.Tracker.TrackSearch(analytics.SearchEvent{
			Type:          t,
			Query:         query,
			Tokens:        len(resp.Tokens),
			Method:        resp.Method,
			Weighting:     resp.Weighting,
			K:             resp.K,
			Returned:      len(resp.Hits),
			TopDocID:      top.DocID,
			TopScore:      top.Score,
			FeedbackTerms: len(resp.FeedbackTerms),
			CacheHit:      resp.CacheHit,
			LatencyMs:     resp.LatencyMs,
			Timestamp:     s.now().UTC(),
			RequestID:     logger.RequestID(ctx),
		})
	}
}

func (s *Service) observe(p collection.Params, outcome string, hit bool, start time.Time, results int) {
	if m := s.opts.Metrics; m != nil {
		m.SearchesTotal.WithLabelValues(p.Method.String(), p.Scheme.String(), outcome).Inc()
		m.SearchLatency.WithLabelValues(cacheStatus(hit)).Observe(s.now().Sub(start).Seconds())
		m.SearchResultsCount.Observe(float64(results))
	}
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

type EvaluateRequest struct {
	Params   collection.Params
	K        int
	Feedback bool
}

// Evaluate runs the configured queries and judgments against the current
// collection, persists the run when a store is configured and publishes an
// evaluation event. A failure to persist is logged, not returned.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*store.Run, error) {
	if s.opts.Corpus.Queries == "" || s.opts.Corpus.Judgments == "" {
		return nil, apperrors.New(apperrors.ErrUnavailable, "corpus", "evaluation is disabled: queries directory and judgments file are not configured")
	}
	opts := evaluation.Options{K: req.K, Params: req.Params, Workers: s.opts.Workers}
	fbName := ""
	if req.Feedback {
		fb := s.opts.Feedback
		opts.Feedback = &fb
		fbName = fb.Strategy.String()
		if fb.Strategy == feedback.WeightedBlend {
			fbName += ":" + strconv.FormatFloat(fb.Weight, 'g', -1, 64)
		}
	}
	out, err := evaluation.RunOn(ctx, s.Collection(), s.opts.Corpus, opts)
	if err != nil {
		if m := s.opts.Metrics; m != nil {
			m.EvaluationRunsTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("evaluating collection: %w", err)
	}
	run := store.NewRun(uuid.NewString(), s.now(), req.Params.Method.String(), req.Params.Scheme.String(), fbName, out)
	sum := run.Summary
	if m := s.opts.Metrics; m != nil {
		m.ObserveEvaluation(sum.MRR, sum.MAP, sum.Recall)
	}
	if s.opts.Runs != nil {
		if err := s.opts.Runs.SaveRun(ctx, run); err != nil {
			logger.FromContext(ctx).Error("persisting evaluation run failed", "run_id", run.ID, "error", err)
		}
	}
	if s.opts.Tracker != nil {
		s.opts.Tracker.TrackEvaluation(analytics.EvaluationEvent{
			RunID:     run.ID,
			K:         run.K,
			Queries:   sum.Queries,
			Failed:    sum.Failed,
			MRR:       sum.MRR,
			MAP:       sum.MAP,
			Recall:    sum.Recall,
			Method:    run.Method,
			Weighting: run.Weighting,
			Feedback:  fbName,
			Timestamp: run.CreatedAt,
		})
	}
	return &run, nil
}

// Runs lists stored evaluation runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if s.opts.Runs == nil {
		return nil, apperrors.New(apperrors.ErrUnavailable, "postgres", "evaluation history is disabled")
	}
	return s.opts.Runs.ListRuns(ctx, limit)
}

func (s *Service) Run(ctx context.Context, id string) (*store.Run, error) {
	if s.opts.Runs == nil {
		return nil, apperrors.New(apperrors.ErrUnavailable, "postgres", "evaluation history is disabled")
	}
	// Run ids are UUIDs; anything else cannot name a stored run.
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.New(apperrors.ErrNotFound, id, "evaluation run not found")
	}
	return s.opts.Runs.GetRun(ctx, id)
}

// Cache exposes the result cache, or nil when caching is disabled.
func (s *Service) Cache() *cache.ResultCache { return s.opts.Cache }
