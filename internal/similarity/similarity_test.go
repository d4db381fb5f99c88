package similarity

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func TestCosineSelfIsOne(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 50; n++ {
		v := make([]float64, 300)
		for i := range v {
			v[i] = float64(rng.Intn(4)) * rng.Float64() * 10
		}
		v[0] = 1
		got, err := CosineSimilarity(v, v)
		if err != nil {
			t.Fatal(err)
		}
		if got != 1.0 && math.Abs(got-1.0) > 1e-12 {
			t.Fatalf("cosine(v,v) = %v, want 1", got)
		}
	}
}

func TestCosineZeroVectorIsZero(t *testing.T) {
	v := []float64{1, 2, 3}
	zero := make([]float64, 3)
	for _, pair := range [][2][]float64{{v, zero}, {zero, v}, {zero, zero}} {
		got, err := CosineSimilarity(pair[0], pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if got != 0.0 {
			t.Errorf("cosine with zero vector = %v, want 0", got)
		}
	}
}

func TestCosineOrthogonal(t *testing.T) {
	got, _ := CosineSimilarity([]float64{1, 0}, []float64{0, 5})
	if got != 0 {
		t.Errorf("orthogonal cosine = %v", got)
	}
}

func TestEuclidean(t *testing.T) {
	got, err := EuclideanDistance([]float64{0, 0}, []float64{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("distance = %v, want 5", got)
	}
}

func TestDimensionMismatch(t *testing.T) {
	if _, err := EuclideanDistance([]float64{1}, []float64{1, 2}); !errors.Is(err, apperrors.ErrDimensionMismatch) {
		t.Errorf("euclidean: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := CosineSimilarity([]float64{1}, []float64{1, 2}); !errors.Is(err, apperrors.ErrDimensionMismatch) {
		t.Errorf("cosine: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMethodOrdering(t *testing.T) {
	if !Cosine.Better(0.9, 0.1) || Cosine.Better(0.1, 0.9) {
		t.Error("cosine should prefer higher scores")
	}
	if !Euclidean.Better(0.1, 0.9) || Euclidean.Better(0.9, 0.1) {
		t.Error("euclidean should prefer lower scores")
	}
	if Cosine.Better(0.5, 0.5) || Euclidean.Better(0.5, 0.5) {
		t.Error("equal scores are ties, not improvements")
	}
}

func TestParseMethod(t *testing.T) {
	for _, s := range []string{"cosine", "euclidean"} {
		m, err := ParseMethod(s)
		if err != nil || m.String() != s {
			t.Errorf("ParseMethod(%q) = %v, %v", s, m, err)
		}
	}
	if _, err := ParseMethod("manhattan"); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func BenchmarkCosineSimilarity(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := make([]float64, 2000)
	y := make([]float64, 2000)
	for i := range x {
		x[i], y[i] = rng.Float64(), rng.Float64()
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CosineSimilarity(x, y)
	}
}
