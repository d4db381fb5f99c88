// Package vocabulary assigns dense, deterministic integer offsets to the
// distinct normalised terms of a collection.
package vocabulary

import (
	"encoding/hex"
	"slices"

	"github.com/zeebo/blake3"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Index maps each term to an offset in [0, Size()). Offsets follow
// lexicographic term order. An Index is read-only after Build.
type Index struct {
	offsets     map[string]int
	terms       []string
	fingerprint string
}

// Build collects the distinct tokens of docs. Stop-word removal is the
// caller's job; nothing is discarded here. A collection with no documents is
// rejected with ErrEmptyCollection; documents without tokens yield an empty
// index.
func Build(docs [][]string) (*Index, error) {
	if len(docs) == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyCollection, "", "cannot build vocabulary from zero documents")
	}
	seen := make(map[string]struct{})
	for _, tokens := range docs {
		for _, tok := range tokens {
			seen[tok] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	slices.Sort(terms)

	offsets := make(map[string]int, len(terms))
	h := blake3.New()
	for i, term := range terms {
		offsets[term] = i
		h.Write([]byte(term))
		h.Write([]byte{0})
	}
	return &Index{
		offsets:     offsets,
		terms:       terms,
		fingerprint: hex.EncodeToString(h.Sum(nil)[:16]),
	}, nil
}

// Offset returns the vector position of term.
func (x *Index) Offset(term string) (int, bool) {
	off, ok := x.offsets[term]
	return off, ok
}

func (x *Index) Size() int {
	return len(x.terms)
}

// Term returns the term stored at offset.
func (x *Index) Term(offset int) string {
	return x.terms[offset]
}

// Terms returns a copy of the vocabulary in offset order.
func (x *Index) Terms() []string {
	return slices.Clone(x.terms)
}

// Fingerprint identifies the vocabulary content. Two indexes built from the
// same terms share a fingerprint.
func (x *Index) Fingerprint() string {
	return x.fingerprint
}
