// Package corpus loads documents and queries stored one per file. A file's
// identifier is the first run of digits in its name.
package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

var numericID = regexp.MustCompile(`\d+`)

// Entry is one loaded file.
type Entry struct {
	ID   string
	Path string
	Text string
}

// LoadDir reads every regular file in dir. Files without a numeric
// identifier, empty files and duplicate identifiers are reported as problems
// and skipped. Entries are ordered by numeric identifier.
func LoadDir(dir string) ([]Entry, []error, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	paths := make([]string, 0, len(des))
	for _, de := range des {
		if de.Type().IsRegular() {
			paths = append(paths, filepath.Join(dir, de.Name()))
		}
	}
	return load(paths)
}

// LoadGlob reads every file matching pattern, e.g. "news/News*.txt".
func LoadGlob(pattern string) ([]Entry, []error, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("expanding pattern %s: %w", pattern, err)
	}
	return load(paths)
}

// IDFromName extracts the first numeric substring of a file's base name.
func IDFromName(path string) (string, bool) {
	id := numericID.FindString(filepath.Base(path))
	return id, id != ""
}

func load(paths []string) ([]Entry, []error, error) {
	logger := slog.Default().With("component", "corpus")
	entries := make([]Entry, 0, len(paths))
	var problems []error
	seen := make(map[string]string, len(paths))
	sort.Strings(paths)
	for _, path := range paths {
		id, ok := IDFromName(path)
		if !ok {
			problems = append(problems, apperrors.New(apperrors.ErrInvalidInput, filepath.Base(path), "file name has no numeric identifier"))
			continue
		}
		if prev, dup := seen[id]; dup {
			problems = append(problems, apperrors.Newf(apperrors.ErrInvalidInput, id, "identifier already used by %s", prev))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, problems, fmt.Errorf("reading %s: %w", path, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			problems = append(problems, apperrors.Newf(apperrors.ErrEmptyDocument, id, "%s has no content", filepath.Base(path)))
			continue
		}
		seen[id] = path
		entries = append(entries, Entry{ID: id, Path: path, Text: text})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return lessID(entries[i].ID, entries[j].ID)
	})
	logger.Debug("files loaded", "entries", len(entries), "problems", len(problems))
	return entries, problems, nil
}

func lessID(a, b string) bool {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil && x != y {
		return x < y
	}
	return a < b
}

// Documents normalises entries into collection documents.
func Documents(a analyzer.TextAnalyzer, entries []Entry) []collection.Document {
	docs := make([]collection.Document, len(entries))
	for i, e := range entries {
		docs[i] = collection.NewDocument(a, e.ID, e.Text)
	}
	return docs
}

// Queries normalises entries into queries.
func Queries(a analyzer.TextAnalyzer, entries []Entry) []collection.Query {
	queries := make([]collection.Query, len(entries))
	for i, e := range entries {
		queries[i] = collection.NewQuery(a, e.ID, e.Text)
	}
	return queries
}
