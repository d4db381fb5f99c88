package analyzer

import (
	"iter"
	"strings"
)

// Whitespace splits on whitespace and performs no other normalisation.
// Categories maps tokens to their class; unlisted tokens are Other.
type Whitespace struct {
	Categories map[string]Category
}

func (Whitespace) Normalize(text string) iter.Seq[string] {
	return strings.FieldsSeq(text)
}

func (w Whitespace) Classify(token string) Category {
	return w.Categories[token]
}
