package analyzer

import (
	"iter"
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
	"she": {}, "we": {}, "you": {}, "his": {}, "her": {}, "our": {},
	"been": {}, "would": {}, "there": {}, "about": {}, "into": {},
	"than": {}, "them": {}, "these": {}, "those": {}, "also": {},
}

// Terms that the suffix rules would otherwise tag as nouns.
var modifiers = map[string]struct{}{
	"very": {}, "more": {}, "most": {}, "many": {}, "much": {}, "some": {},
	"other": {}, "new": {}, "old": {}, "good": {}, "great": {}, "high": {},
	"low": {}, "big": {}, "small": {}, "large": {}, "early": {}, "late": {},
	"all": {}, "any": {}, "only": {}, "just": {}, "still": {}, "even": {},
	"however": {}, "after": {}, "before": {}, "over": {}, "under": {},
	"between": {}, "during": {}, "against": {}, "then": {}, "now": {},
}

var commonVerbs = map[string]struct{}{
	"say": {}, "said": {}, "make": {}, "made": {}, "go": {}, "went": {},
	"take": {}, "took": {}, "get": {}, "got": {}, "see": {}, "saw": {},
	"come": {}, "came": {}, "know": {}, "knew": {}, "give": {}, "gave": {},
	"find": {}, "found": {}, "tell": {}, "told": {}, "hit": {}, "strike": {},
	"struck": {}, "kill": {}, "move": {}, "warn": {}, "report": {},
	"announc": {}, "attack": {}, "launch": {}, "increas": {}, "declin": {},
}

// English is the default analyzer: lower-case, split on non-alphanumeric
// boundaries, drop stop-words and single characters, then strip suffixes.
type English struct{}

// NewEnglish returns the default English analyzer.
func NewEnglish() English {
	return English{}
}

func (English) Normalize(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i, r := range text {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if tok, ok := normalizeWord(text[start:i]); ok && !yield(tok) {
					return
				}
				start = -1
			}
		}
		if start >= 0 {
			if tok, ok := normalizeWord(text[start:]); ok {
				yield(tok)
			}
		}
	}
}

// Classify applies a lexicon and suffix heuristic. Numbers and modifiers are
// Other, verb-shaped stems are Verb, everything else is a Noun.
func (English) Classify(token string) Category {
	if token == "" || isNumeric(token) {
		return Other
	}
	if _, ok := modifiers[token]; ok {
		return Other
	}
	if _, ok := commonVerbs[token]; ok {
		return Verb
	}
	for _, suffix := range []string{"ize", "ise", "ify", "ate", "en"} {
		if strings.HasSuffix(token, suffix) && len(token) > len(suffix)+2 {
			return Verb
		}
	}
	return Noun
}

func normalizeWord(word string) (string, bool) {
	word = strings.ToLower(word)
	if len(word) < 2 {
		return "", false
	}
	if _, isStop := stopWords[word]; isStop {
		return "", false
	}
	stemmed := stem(word)
	if stemmed == "" {
		return "", false
	}
	return stemmed, true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// stem applies the first matching suffix rule whose result is long enough.
func stem(word string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}
