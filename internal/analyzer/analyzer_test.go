package analyzer

import (
	"slices"
	"testing"
)

func TestEnglishNormalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"stop words removed", "The cat and the dog", []string{"cat", "dog"}},
		{"plural stripped", "Dogs chase cats", []string{"dog", "chase", "cat"}},
		{"punctuation splits", "typhoon,taiwan;war.", []string{"typhoon", "taiwan", "war"}},
		{"single characters dropped", "a b c fish", []string{"fish"}},
		{"empty", "", nil},
	}
	a := NewEnglish()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(a, tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokens(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEnglishNormalizeIsLazy(t *testing.T) {
	var seen []string
	for tok := range NewEnglish().Normalize("typhoon taiwan war") {
		seen = append(seen, tok)
		break
	}
	if !slices.Equal(seen, []string{"typhoon"}) {
		t.Errorf("expected iteration to stop after first token, got %v", seen)
	}
}

func TestEnglishClassify(t *testing.T) {
	a := NewEnglish()
	tests := []struct {
		token string
		want  Category
	}{
		{"typhoon", Noun},
		{"said", Verb},
		{"organize", Verb},
		{"2024", Other},
		{"very", Other},
		{"", Other},
	}
	for _, tt := range tests {
		if got := a.Classify(tt.token); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.token, got, tt.want)
		}
	}
}

func TestWhitespaceStub(t *testing.T) {
	w := Whitespace{Categories: map[string]Category{"storm": Noun, "hit": Verb}}
	if got := Tokens(w, "storm  hit coast"); !slices.Equal(got, []string{"storm", "hit", "coast"}) {
		t.Errorf("unexpected tokens %v", got)
	}
	if !IsFeedbackCandidate(w.Classify("hit")) {
		t.Error("verb should be a feedback candidate")
	}
	if IsFeedbackCandidate(w.Classify("coast")) {
		t.Error("unlisted token should not be a feedback candidate")
	}
}
