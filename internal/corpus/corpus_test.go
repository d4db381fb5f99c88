package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadDirOrdersByNumericID(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"News10.txt": "typhoon hits taiwan",
		"News2.txt":  "war in the north",
		"News1.txt":  "election results",
	})
	entries, problems, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if !slices.Equal(ids, []string{"1", "2", "10"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestLoadDirReportsBadFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"d1.txt":      "storm",
		"readme.txt":  "no id here",
		"d2.txt":      "   \n",
		"copy_d1.txt": "duplicate identifier",
	})
	entries, problems, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "1" {
		t.Fatalf("entries = %+v", entries)
	}
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %v", problems)
	}
	var empty int
	for _, p := range problems {
		if apperrors.KindOf(p) != apperrors.KindInput {
			t.Errorf("problem %v should be an input error", p)
		}
		if errors.Is(p, apperrors.ErrEmptyDocument) {
			empty++
		}
	}
	if empty != 1 {
		t.Errorf("expected one empty-document problem, got %d", empty)
	}
}

func TestLoadGlob(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"News1.txt":  "storm",
		"Other2.txt": "ignored",
	})
	entries, _, err := LoadGlob(filepath.Join(dir, "News*.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "1" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDocumentsAndQueries(t *testing.T) {
	entries := []Entry{{ID: "1", Text: "Storms hit"}}
	docs := Documents(analyzer.NewEnglish(), entries)
	if docs[0].ID != "1" || !slices.Equal(docs[0].Tokens, []string{"storm", "hit"}) {
		t.Errorf("document = %+v", docs[0])
	}
	queries := Queries(analyzer.NewEnglish(), entries)
	if queries[0].ID != "1" || len(queries[0].Tokens) != 2 {
		t.Errorf("query = %+v", queries[0])
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}
