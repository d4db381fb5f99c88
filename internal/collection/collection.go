// Package collection holds the immutable retrieval context for one document
// collection: its vocabulary, shared IDF vector and per-document TF and
// TF-IDF vectors. A Collection is built once and is safe for concurrent
// searches; a changed corpus needs a new Build.
package collection

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/vocabulary"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Params selects how a search scores documents.
type Params struct {
	Method similarity.Method `json:"method"`
	Scheme weighting.Scheme  `json:"weighting"`
	K      int               `json:"k"`
}

// DefaultParams is cosine over TF-IDF, top 10.
func DefaultParams() Params {
	return Params{Method: similarity.Cosine, Scheme: weighting.TFIDF, K: 10}
}

// Options tunes collection construction.
type Options struct {
	// Workers bounds per-search scoring goroutines; 0 means GOMAXPROCS.
	Workers int
}

type Collection struct {
	analyzer    analyzer.TextAnalyzer
	docs        []Document
	ids         []string
	positions   map[string]int
	index       *vocabulary.Index
	idf         weighting.Vector
	tf          []weighting.Vector
	tfidf       []weighting.Vector
	ranker      *ranker.Ranker
	fingerprint string
	logger      *slog.Logger
}

// Build indexes docs. Document identifiers must be unique.
func Build(a analyzer.TextAnalyzer, docs []Document, opts Options) (*Collection, error) {
	logger := slog.Default().With("component", "collection")
	positions := make(map[string]int, len(docs))
	ids := make([]string, len(docs))
	tokens := make([][]string, len(docs))
	h := blake3.New()
	for i, d := range docs {
		if _, dup := positions[d.ID]; dup {
			return nil, apperrors.New(apperrors.ErrInvalidInput, d.ID, "duplicate document identifier")
		}
		positions[d.ID] = i
		ids[i] = d.ID
		tokens[i] = d.Tokens
		h.Write([]byte(d.ID))
		h.Write([]byte{0})
	}

	index, err := vocabulary.Build(tokens)
	if err != nil {
		return nil, fmt.Errorf("building vocabulary: %w", err)
	}
	if index.Size() == 0 {
		logger.Warn("collection produced an empty vocabulary", "documents", len(docs))
	}
	h.Write([]byte(index.Fingerprint()))

	idf := weighting.IDF(weighting.DocumentFrequencies(tokens, index), len(docs), index)
	tf := make([]weighting.Vector, len(docs))
	tfidf := make([]weighting.Vector, len(docs))
	for i := range docs {
		tf[i] = weighting.TermFrequency(tokens[i], index)
		tfidf[i], err = weighting.Apply(tf[i], idf)
		if err != nil {
			return nil, fmt.Errorf("weighting document %s: %w", ids[i], err)
		}
	}

	c := &Collection{
		analyzer:    a,
		docs:        docs,
		ids:         ids,
		positions:   positions,
		index:       index,
		idf:         idf,
		tf:          tf,
		tfidf:       tfidf,
		ranker:      ranker.New(opts.Workers),
		fingerprint: hex.EncodeToString(h.Sum(nil)[:16]),
		logger:      logger,
	}
	logger.Info("collection built",
		"documents", len(docs),
		"vocabulary_size", index.Size(),
	)
	return c, nil
}

func (c *Collection) Analyzer() analyzer.TextAnalyzer { return c.analyzer }

func (c *Collection) Index() *vocabulary.Index { return c.index }

// IDF returns the shared IDF vector. Callers must not modify it.
func (c *Collection) IDF() weighting.Vector { return c.idf }

func (c *Collection) Len() int { return len(c.docs) }

// Fingerprint identifies the document set and vocabulary.
func (c *Collection) Fingerprint() string { return c.fingerprint }

// Document resolves id to a loaded document.
func (c *Collection) Document(id string) (Document, bool) {
	i, ok := c.positions[id]
	if !ok {
		return Document{}, false
	}
	return c.docs[i], true
}

// IDs returns document identifiers in collection order.
func (c *Collection) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Vectors returns the per-document vectors for scheme, aligned with IDs.
func (c *Collection) Vectors(scheme weighting.Scheme) []weighting.Vector {
	if scheme == weighting.RawTF {
		return c.tf
	}
	return c.tfidf
}

// QueryVector weights tokens against this collection. TF-IDF always uses the
// collection IDF so scores stay comparable across searches.
func (c *Collection) QueryVector(tokens []string, scheme weighting.Scheme) (weighting.Vector, error) {
	tf := weighting.TermFrequency(tokens, c.index)
	if scheme == weighting.RawTF {
		return tf, nil
	}
	return weighting.Apply(tf, c.idf)
}

// Search normalises the raw query terms and ranks the collection.
func (c *Collection) Search(ctx context.Context, terms []string, p Params) (ranker.Result, error) {
	q := NewQuery(c.analyzer, "", strings.Join(terms, " "))
	return c.SearchQuery(ctx, q, p)
}

// SearchQuery ranks the collection against an already normalised query.
func (c *Collection) SearchQuery(ctx context.Context, q Query, p Params) (ranker.Result, error) {
	vec, err := c.QueryVector(q.Tokens, p.Scheme)
	if err != nil {
		return ranker.Result{}, err
	}
	res, err := c.SearchVector(ctx, vec, p)
	if err != nil {
		return ranker.Result{}, err
	}
	c.logger.Debug("search executed",
		"query_id", q.ID,
		"tokens", len(q.Tokens),
		"method", p.Method,
		"weighting", p.Scheme,
		"results", res.Len(),
	)
	return res, nil
}

// SearchVector ranks the collection against a prepared query vector. The
// vector must come from this collection's vocabulary.
func (c *Collection) SearchVector(ctx context.Context, vec weighting.Vector, p Params) (ranker.Result, error) {
	if len(vec) != c.index.Size() {
		return ranker.Result{}, apperrors.Newf(apperrors.ErrVocabularyMismatch, "",
			"query vector has %d dimensions, vocabulary has %d", len(vec), c.index.Size())
	}
	return c.ranker.Rank(ctx, vec, c.Vectors(p.Scheme), c.ids, p.Method, p.K)
}

// Related ranks the collection against an existing document's vector.
func (c *Collection) Related(ctx context.Context, docID string, p Params) (ranker.Result, error) {
	i, ok := c.positions[docID]
	if !ok {
		return ranker.Result{}, apperrors.New(apperrors.ErrDocumentNotFound, docID, "document is not part of the collection")
	}
	return c.SearchVector(ctx, c.Vectors(p.Scheme)[i], p)
}
