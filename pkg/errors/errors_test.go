package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("loading judgments: %w", New(ErrMalformedJudgmentLine, "line 3", "missing tab"))

	if !errors.Is(err, ErrMalformedJudgmentLine) {
		t.Fatalf("expected errors.Is to match sentinel, got %v", err)
	}
	if got := KindOf(err); got != KindInput {
		t.Errorf("expected kind input, got %s", got)
	}
	if got := ItemID(err); got != "line 3" {
		t.Errorf("expected item id %q, got %q", "line 3", got)
	}
	if got := HTTPStatusCode(err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestKindOfSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrDimensionMismatch, KindInput},
		{ErrEmptyDocument, KindInput},
		{ErrFeedbackDocumentOutOfRange, KindConsistency},
		{ErrVocabularyMismatch, KindConsistency},
		{ErrInvalidConfig, KindConfig},
		{errors.New("boom"), KindInternal},
		{nil, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestErrorMessageIncludesID(t *testing.T) {
	err := Newf(ErrEmptyDocument, "42", "file %s has no content", "News42.txt")
	want := "empty document [42]: file News42.txt has no content"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
