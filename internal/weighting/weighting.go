// Package weighting builds raw term-frequency, inverse-document-frequency and
// TF-IDF vectors over a vocabulary.Index.
package weighting

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/vocabulary"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Vector is a dense weight array with one slot per vocabulary offset.
type Vector []float64

// Scheme selects which vectors a search compares.
type Scheme int

const (
	RawTF Scheme = iota
	TFIDF
)

func (s Scheme) String() string {
	switch s {
	case RawTF:
		return "tf"
	case TFIDF:
		return "tf-idf"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme accepts "tf" and "tf-idf". Anything else is a configuration
// error rather than a silent default.
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "tf":
		return RawTF, nil
	case "tf-idf":
		return TFIDF, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidConfig, s, "unknown weighting %q (want tf or tf-idf)", s)
	}
}

func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scheme) UnmarshalText(b []byte) error {
	parsed, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TermFrequency counts tokens by vocabulary offset. Tokens outside the
// vocabulary are ignored.
func TermFrequency(tokens []string, idx *vocabulary.Index) Vector {
	v := make(Vector, idx.Size())
	for _, tok := range tokens {
		if off, ok := idx.Offset(tok); ok {
			v[off]++
		}
	}
	return v
}

// DocumentFrequencies counts, for every vocabulary term, the documents that
// contain it at least once.
func DocumentFrequencies(docs [][]string, idx *vocabulary.Index) map[string]int {
	df := make(map[string]int, idx.Size())
	for _, term := range idx.Terms() {
		df[term] = 0
	}
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			if _, known := df[tok]; known {
				df[tok]++
			}
		}
	}
	return df
}

// IDF computes ln(total/(1+df)) + 1 for every vocabulary term.
func IDF(df map[string]int, total int, idx *vocabulary.Index) Vector {
	v := make(Vector, idx.Size())
	for i, term := range idx.Terms() {
		v[i] = math.Log(float64(total)/float64(1+df[term])) + 1
	}
	return v
}

// Apply returns the elementwise product of tf and idf.
func Apply(tf, idf Vector) (Vector, error) {
	if len(tf) != len(idf) {
		return nil, apperrors.Newf(apperrors.ErrDimensionMismatch, "",
			"tf has %d dimensions, idf has %d", len(tf), len(idf))
	}
	out := make(Vector, len(tf))
	for i := range tf {
		out[i] = tf[i] * idf[i]
	}
	return out, nil
}

// Add returns a + weight*b.
func Add(a, b Vector, weight float64) (Vector, error) {
	if len(a) != len(b) {
		return nil, apperrors.Newf(apperrors.ErrDimensionMismatch, "",
			"cannot add %d and %d dimensional vectors", len(a), len(b))
	}
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] + weight*b[i]
	}
	return out, nil
}
