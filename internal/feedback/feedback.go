// Package feedback implements one round of pseudo-relevance feedback: the
// top document of an initial search contributes its noun and verb tokens to
// an expanded query, which is searched again.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Strategy decides how feedback terms are folded into the query.
type Strategy int

const (
	// Concatenate appends feedback tokens to the query tokens, so each
	// occurrence adds one to the term frequency.
	Concatenate Strategy = iota
	// WeightedBlend adds Weight times the feedback term-frequency vector to
	// the original query vector.
	WeightedBlend
)

func (s Strategy) String() string {
	switch s {
	case Concatenate:
		return "concatenate"
	case WeightedBlend:
		return "weighted-blend"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "concatenate":
		return Concatenate, nil
	case "weighted-blend":
		return WeightedBlend, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidConfig, s,
			"unknown feedback strategy %q (want concatenate or weighted-blend)", s)
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(b []byte) error {
	parsed, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Config struct {
	Strategy Strategy `json:"strategy"`
	Weight   float64  `json:"weight"`
}

func DefaultConfig() Config {
	return Config{Strategy: Concatenate, Weight: 0.5}
}

func (c Config) Validate() error {
	if c.Strategy != Concatenate && c.Strategy != WeightedBlend {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "", "unknown feedback strategy %d", int(c.Strategy))
	}
	if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) || c.Weight < 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "", "feedback weight must be a non-negative number, got %v", c.Weight)
	}
	return nil
}

// Collection is the part of collection.Collection feedback depends on.
type Collection interface {
	SearchQuery(ctx context.Context, q collection.Query, p collection.Params) (ranker.Result, error)
	SearchVector(ctx context.Context, vec weighting.Vector, p collection.Params) (ranker.Result, error)
	QueryVector(tokens []string, scheme weighting.Scheme) (weighting.Vector, error)
	Document(id string) (collection.Document, bool)
}

// Classifier tags tokens with a grammatical category.
type Classifier interface {
	Classify(token string) analyzer.Category
}

// Outcome records both rounds of a feedback search.
type Outcome struct {
	Initial  ranker.Result    `json:"initial"`
	Terms    []string         `json:"feedback_terms"`
	Expanded collection.Query `json:"-"`
	Result   ranker.Result    `json:"result"`
}

type Expander struct {
	coll       Collection
	classifier Classifier
	cfg        Config
	logger     *slog.Logger
}

func New(coll Collection, classifier Classifier, cfg Config) (*Expander, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Expander{
		coll:       coll,
		classifier: classifier,
		cfg:        cfg,
		logger:     slog.Default().With("component", "feedback"),
	}, nil
}

// Run searches q, expands it from the top hit and searches again. An empty
// initial ranking yields an empty Outcome and no error; the classifier is not
// consulted in that case.
func (e *Expander) Run(ctx context.Context, q collection.Query, p collection.Params) (*Outcome, error) {
	initial, err := e.coll.SearchQuery(ctx, q, p)
	if err != nil {
		return nil, fmt.Errorf("initial search: %w", err)
	}
	out := &Outcome{Initial: initial, Expanded: q, Result: ranker.Result{Method: p.Method, Hits: []ranker.Hit{}}}

	terms, err := e.Terms(initial)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoResults) {
			e.logger.Info("no initial results, skipping feedback", "query_id", q.ID)
			return out, nil
		}
		return nil, err
	}
	out.Terms = terms

	switch e.cfg.Strategy {
	case WeightedBlend:
		out.Result, err = e.blend(ctx, q, terms, p)
	default:
		out.Expanded = q.Expand(terms)
		out.Result, err = e.coll.SearchQuery(ctx, out.Expanded, p)
	}
	if err != nil {
		return nil, fmt.Errorf("feedback search: %w", err)
	}
	e.logger.Debug("feedback applied",
		"query_id", q.ID,
		"strategy", e.cfg.Strategy,
		"feedback_doc", initial.Hits[0].DocID,
		"feedback_terms", len(terms),
	)
	return out, nil
}

// Terms extracts expansion candidates from the top hit of initial. It fails
// with ErrNoResults when initial is empty and with
// ErrFeedbackDocumentOutOfRange when the hit does not resolve.
func (e *Expander) Terms(initial ranker.Result) ([]string, error) {
	if initial.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrNoResults, "", "initial search returned nothing")
	}
	top := initial.Hits[0].DocID
	doc, ok := e.coll.Document(top)
	if !ok {
		return nil, apperrors.New(apperrors.ErrFeedbackDocumentOutOfRange, top, "top document is not in the collection")
	}
	terms := make([]string, 0, len(doc.Tokens))
	for _, tok := range doc.Tokens {
		if analyzer.IsFeedbackCandidate(e.classifier.Classify(tok)) {
			terms = append(terms, tok)
		}
	}
	return terms, nil
}

func (e *Expander) blend(ctx context.Context, q collection.Query, terms []string, p collection.Params) (ranker.Result, error) {
	base, err := e.coll.QueryVector(q.Tokens, p.Scheme)
	if err != nil {
		return ranker.Result{}, err
	}
	extra, err := e.coll.QueryVector(terms, p.Scheme)
	if err != nil {
		return ranker.Result{}, err
	}
	vec, err := weighting.Add(base, extra, e.cfg.Weight)
	if err != nil {
		return ranker.Result{}, err
	}
	return e.coll.SearchVector(ctx, vec, p)
}
