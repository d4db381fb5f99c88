package vocabulary

import (
	"errors"
	"slices"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func TestBuildSortedDenseOffsets(t *testing.T) {
	idx, err := Build([][]string{{"cat", "dog"}, {"dog", "bird"}, {"fish"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"bird", "cat", "dog", "fish"}
	if got := idx.Terms(); !slices.Equal(got, want) {
		t.Fatalf("Terms() = %v, want %v", got, want)
	}
	for i, term := range want {
		off, ok := idx.Offset(term)
		if !ok || off != i {
			t.Errorf("Offset(%q) = %d,%v want %d,true", term, off, ok, i)
		}
		if idx.Term(i) != term {
			t.Errorf("Term(%d) = %q, want %q", i, idx.Term(i), term)
		}
	}
	if _, ok := idx.Offset("zebra"); ok {
		t.Error("unknown term should not resolve")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	docs := [][]string{{"storm", "taiwan"}, {"war", "storm"}, {"typhoon"}}
	a, err := Build(docs)
	if err != nil {
		t.Fatal(err)
	}
	reordered := [][]string{{"typhoon"}, {"storm", "war"}, {"taiwan", "storm"}}
	b, err := Build(reordered)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Terms(), b.Terms()) {
		t.Errorf("terms differ: %v vs %v", a.Terms(), b.Terms())
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprints should match for identical vocabularies")
	}
}

func TestBuildEmptyCollection(t *testing.T) {
	_, err := Build(nil)
	if !errors.Is(err, apperrors.ErrEmptyCollection) {
		t.Fatalf("expected ErrEmptyCollection, got %v", err)
	}
}

func TestBuildDocumentsWithoutTokens(t *testing.T) {
	idx, err := Build([][]string{{}, {}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("expected empty index, got size %d", idx.Size())
	}
}

func TestTermsReturnsCopy(t *testing.T) {
	idx, _ := Build([][]string{{"a1", "b2"}})
	terms := idx.Terms()
	terms[0] = "mutated"
	if idx.Term(0) != "a1" {
		t.Error("Terms() must not expose internal storage")
	}
}
