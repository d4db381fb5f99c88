// Package analyzer defines the text-normalisation capability consumed by the
// retrieval core. Tokenisation, stop-word filtering, stemming and
// part-of-speech classification all sit behind TextAnalyzer so the core can
// be exercised against a deterministic stub.
package analyzer

import (
	"iter"
	"slices"
)

// Category is the grammatical class assigned to a normalised token.
type Category int

const (
	Other Category = iota
	Noun
	Verb
)

func (c Category) String() string {
	switch c {
	case Noun:
		return "noun"
	case Verb:
		return "verb"
	default:
		return "other"
	}
}

// TextAnalyzer turns raw text into normalised tokens and classifies them.
type TextAnalyzer interface {
	// Normalize returns a lazy sequence of normalised tokens.
	Normalize(text string) iter.Seq[string]
	// Classify returns the grammatical category of a normalised token.
	Classify(token string) Category
}

// Tokens drains Normalize into a slice.
func Tokens(a TextAnalyzer, text string) []string {
	return slices.Collect(a.Normalize(text))
}

// IsFeedbackCandidate reports whether c marks a token usable for query
// expansion.
func IsFeedbackCandidate(c Category) bool {
	return c == Noun || c == Verb
}
