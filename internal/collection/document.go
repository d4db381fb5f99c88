package collection

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
)

// Document is an immutable loaded document and its normalised tokens.
type Document struct {
	ID     string
	Text   string
	Tokens []string
}

// NewDocument normalises text with a.
func NewDocument(a analyzer.TextAnalyzer, id, text string) Document {
	return Document{ID: id, Text: text, Tokens: analyzer.Tokens(a, text)}
}

// Query is an immutable search request. ID is empty for ad-hoc queries.
type Query struct {
	ID     string
	Text   string
	Tokens []string
}

// NewQuery normalises text with a.
func NewQuery(a analyzer.TextAnalyzer, id, text string) Query {
	return Query{ID: id, Text: text, Tokens: analyzer.Tokens(a, text)}
}

// Expand returns a new Query whose tokens are q's followed by extra.
// Duplicates are kept so repeated terms weigh more.
func (q Query) Expand(extra []string) Query {
	tokens := make([]string, 0, len(q.Tokens)+len(extra))
	tokens = append(tokens, q.Tokens...)
	tokens = append(tokens, extra...)
	text := q.Text
	for _, t := range extra {
		text += " " + t
	}
	return Query{ID: q.ID, Text: text, Tokens: tokens}
}
