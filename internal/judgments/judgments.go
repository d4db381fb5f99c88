// Package judgments parses binary relevance judgments of the form
//
//	queryID<TAB>['doc1', 'doc2', ...]
//
// The list field is read by a small literal parser that accepts only a
// bracketed, comma-separated sequence of quoted strings or bare words.
package judgments

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

var numericID = regexp.MustCompile(`\d+`)

// Set maps a query identifier to its relevant document identifiers. It is
// read-only once parsed.
type Set map[string]map[string]struct{}

// Relevant returns the relevant documents for queryID; unknown queries have
// none.
func (s Set) Relevant(queryID string) map[string]struct{} {
	return s[queryID]
}

// Queries returns the judged query identifiers in sorted order.
func (s Set) Queries() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LineError reports a judgment line that could not be parsed.
type LineError struct {
	Line int
	Text string
	err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.err
}

func newLineError(line int, text string, format string, args ...any) *LineError {
	return &LineError{
		Line: line,
		Text: text,
		err:  apperrors.Newf(apperrors.ErrMalformedJudgmentLine, fmt.Sprintf("line %d", line), format, args...),
	}
}

// Parse reads judgments from r. Malformed lines are skipped and returned as
// LineErrors; the returned error is reserved for read failures. Repeated
// query lines are merged.
func Parse(r io.Reader) (Set, []*LineError, error) {
	set := make(Set)
	var problems []*LineError
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		queryID, docIDs, lerr := parseLine(lineNo, raw, line)
		if lerr != nil {
			problems = append(problems, lerr)
			continue
		}
		rel, ok := set[queryID]
		if !ok {
			rel = make(map[string]struct{}, len(docIDs))
			set[queryID] = rel
		}
		for _, id := range docIDs {
			rel[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, problems, fmt.Errorf("reading judgments: %w", err)
	}
	return set, problems, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string) (Set, []*LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening judgments file %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

func parseLine(lineNo int, raw, line string) (string, []string, *LineError) {
	head, list, ok := strings.Cut(line, "\t")
	if !ok {
		return "", nil, newLineError(lineNo, raw, "missing tab separator")
	}
	queryID := numericID.FindString(head)
	if queryID == "" {
		return "", nil, newLineError(lineNo, raw, "query identifier %q has no numeric part", head)
	}
	items, err := parseList(strings.TrimSpace(list))
	if err != nil {
		return "", nil, newLineError(lineNo, raw, "%v", err)
	}
	docIDs := make([]string, 0, len(items))
	for _, item := range items {
		id := numericID.FindString(item)
		if id == "" {
			return "", nil, newLineError(lineNo, raw, "document identifier %q has no numeric part", item)
		}
		docIDs = append(docIDs, id)
	}
	return queryID, docIDs, nil
}
