package collection

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func petCollection(t *testing.T) *Collection {
	t.Helper()
	a := analyzer.Whitespace{}
	docs := []Document{
		NewDocument(a, "D1", "cat dog"),
		NewDocument(a, "D2", "dog bird"),
		NewDocument(a, "D3", "fish"),
	}
	c, err := Build(a, docs, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func TestBuildPetScenario(t *testing.T) {
	c := petCollection(t)
	if got := c.Index().Terms(); !slices.Equal(got, []string{"bird", "cat", "dog", "fish"}) {
		t.Fatalf("vocabulary = %v", got)
	}
	off, _ := c.Index().Offset("dog")
	if c.IDF()[off] != 1.0 {
		t.Errorf("idf(dog) = %v, want 1.0", c.IDF()[off])
	}
}

func TestSearchPetScenarioTieBreak(t *testing.T) {
	c := petCollection(t)
	res, err := c.Search(context.Background(), []string{"dog"}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if got := res.IDs(); !slices.Equal(got, []string{"D1", "D2", "D3"}) {
		t.Fatalf("ranking = %v, want [D1 D2 D3]", got)
	}
	if res.Hits[0].Score != res.Hits[1].Score {
		t.Errorf("D1 and D2 should tie: %v vs %v", res.Hits[0].Score, res.Hits[1].Score)
	}
	if res.Hits[2].Score != 0 {
		t.Errorf("D3 shares no terms, score = %v", res.Hits[2].Score)
	}
}

func TestTFIDFIsElementwiseProduct(t *testing.T) {
	c := petCollection(t)
	tf := c.Vectors(weighting.RawTF)
	tfidf := c.Vectors(weighting.TFIDF)
	idf := c.IDF()
	for d := range tf {
		for i := range tf[d] {
			if tfidf[d][i] != tf[d][i]*idf[i] {
				t.Fatalf("doc %d term %d: %v != %v*%v", d, i, tfidf[d][i], tf[d][i], idf[i])
			}
		}
	}
}

func TestRebuildIsBitIdentical(t *testing.T) {
	a, b := petCollection(t), petCollection(t)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprints differ for identical input")
	}
	for i := range a.IDF() {
		if math.Float64bits(a.IDF()[i]) != math.Float64bits(b.IDF()[i]) {
			t.Errorf("idf[%d] differs", i)
		}
	}
}

func TestSearchUnknownTermsYieldZeroScores(t *testing.T) {
	c := petCollection(t)
	res, err := c.Search(context.Background(), []string{"zebra"}, DefaultParams())
	if err != nil {
		t.Fatalf("unknown terms must not error: %v", err)
	}
	for _, h := range res.Hits {
		if h.Score != 0 {
			t.Errorf("%s scored %v for an out-of-vocabulary query", h.DocID, h.Score)
		}
	}
}

func TestSearchEuclideanRawTF(t *testing.T) {
	c := petCollection(t)
	p := Params{Method: similarity.Euclidean, Scheme: weighting.RawTF, K: 2}
	res, err := c.Search(context.Background(), []string{"fish"}, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 2 || res.Hits[0].DocID != "D3" || res.Hits[0].Score != 0 {
		t.Errorf("unexpected ranking %+v", res.Hits)
	}
}

func TestSearchVectorRejectsForeignVocabulary(t *testing.T) {
	c := petCollection(t)
	_, err := c.SearchVector(context.Background(), weighting.Vector{1, 2}, DefaultParams())
	if !errors.Is(err, apperrors.ErrVocabularyMismatch) {
		t.Fatalf("expected ErrVocabularyMismatch, got %v", err)
	}
}

func TestRelated(t *testing.T) {
	c := petCollection(t)
	res, err := c.Related(context.Background(), "D1", DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if res.Hits[0].DocID != "D1" {
		t.Errorf("a document should be most related to itself, got %s", res.Hits[0].DocID)
	}
	if _, err := c.Related(context.Background(), "D9", DefaultParams()); !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	a := analyzer.Whitespace{}
	docs := []Document{NewDocument(a, "D1", "cat"), NewDocument(a, "D1", "dog")}
	_, err := Build(a, docs, Options{})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if apperrors.ItemID(err) != "D1" {
		t.Errorf("error should carry the duplicate id, got %q", apperrors.ItemID(err))
	}
}

func TestBuildEmptyCollection(t *testing.T) {
	_, err := Build(analyzer.Whitespace{}, nil, Options{})
	if !errors.Is(err, apperrors.ErrEmptyCollection) {
		t.Fatalf("expected ErrEmptyCollection, got %v", err)
	}
}

func TestQueryExpandReturnsNewQuery(t *testing.T) {
	q := NewQuery(analyzer.Whitespace{}, "q1", "storm")
	expanded := q.Expand([]string{"storm", "coast"})
	if !slices.Equal(q.Tokens, []string{"storm"}) {
		t.Errorf("original query mutated: %v", q.Tokens)
	}
	if !slices.Equal(expanded.Tokens, []string{"storm", "storm", "coast"}) {
		t.Errorf("expanded tokens = %v", expanded.Tokens)
	}
	if expanded.ID != "q1" {
		t.Errorf("expanded query should keep the id, got %q", expanded.ID)
	}
}
