// Package similarity scores pairs of term vectors. All functions are pure.
package similarity

import (
	"fmt"
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Method selects the scoring function and its ordering.
type Method int

const (
	// Cosine is a similarity: higher ranks first.
	Cosine Method = iota
	// Euclidean is a distance: lower ranks first.
	Euclidean
)

func (m Method) String() string {
	switch m {
	case Cosine:
		return "cosine"
	case Euclidean:
		return "euclidean"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod accepts "cosine" and "euclidean".
func ParseMethod(s string) (Method, error) {
	switch s {
	case "cosine":
		return Cosine, nil
	case "euclidean":
		return Euclidean, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidConfig, s, "unknown similarity method %q (want cosine or euclidean)", s)
	}
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Better reports whether score x ranks strictly ahead of y.
func (m Method) Better(x, y float64) bool {
	if m == Euclidean {
		return x < y
	}
	return x > y
}

// Score dispatches to the function selected by m.
func (m Method) Score(a, b []float64) (float64, error) {
	if m == Euclidean {
		return EuclideanDistance(a, b)
	}
	return CosineSimilarity(a, b)
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or exactly 0 when either vector
// has zero magnitude.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, mismatch(a, b)
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push v·v/(|v||v|) a hair past 1.
	return math.Max(-1, math.Min(1, cos)), nil
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, mismatch(a, b)
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func mismatch(a, b []float64) error {
	return apperrors.Newf(apperrors.ErrDimensionMismatch, "", "vectors have %d and %d dimensions", len(a), len(b))
}
