package judgments

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func TestParseWellFormed(t *testing.T) {
	input := strings.Join([]string{
		"q1\t['d12', 'd7']",
		"q2\t[\"d3\"]",
		"3\t[d40, d41,]",
		"q4\t[]",
		"",
	}, "\n")
	set, problems, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	tests := map[string][]string{
		"1": {"12", "7"},
		"2": {"3"},
		"3": {"40", "41"},
		"4": {},
	}
	for q, want := range tests {
		if got := keys(set.Relevant(q)); !slices.Equal(got, want) {
			t.Errorf("Relevant(%s) = %v, want %v", q, got, want)
		}
	}
	if got := set.Queries(); !slices.Equal(got, []string{"1", "2", "3", "4"}) {
		t.Errorf("Queries() = %v", got)
	}
	if set.Relevant("99") != nil {
		t.Error("unknown query should have no judgments")
	}
}

func TestParseMalformedLinesContinue(t *testing.T) {
	input := strings.Join([]string{
		"q1\t['d1']",
		"q2 ['d2']",                  // no tab
		"query\t['d3']",              // no numeric query id
		"q4\t['d4'",                  // unterminated list
		"q5\t__import__('os')",       // not a list literal
		"q6\t['abc']",                // no numeric doc id
		"q7\t['d7'] + ['d8']",        // trailing expression
		"q8\t['d\\x41']",             // escape sequence
		"q9\t['d9', 'd10']",
	}, "\n")
	set, problems, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 7 {
		t.Fatalf("expected 7 malformed lines, got %d: %v", len(problems), problems)
	}
	wantLines := []int{2, 3, 4, 5, 6, 7, 8}
	for i, p := range problems {
		if p.Line != wantLines[i] {
			t.Errorf("problem %d on line %d, want %d", i, p.Line, wantLines[i])
		}
		if !errors.Is(p, apperrors.ErrMalformedJudgmentLine) {
			t.Errorf("problem %d does not wrap ErrMalformedJudgmentLine: %v", i, p)
		}
		if apperrors.KindOf(p) != apperrors.KindInput {
			t.Errorf("problem %d should be an input error", i)
		}
	}
	if got := keys(set.Relevant("1")); !slices.Equal(got, []string{"1"}) {
		t.Errorf("q1 = %v", got)
	}
	if got := keys(set.Relevant("9")); !slices.Equal(got, []string{"10", "9"}) {
		t.Errorf("q9 = %v", got)
	}
}

func TestParseMergesRepeatedQueries(t *testing.T) {
	set, _, err := Parse(strings.NewReader("q1\t['d1']\nq1\t['d2']\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := keys(set.Relevant("1")); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("merged judgments = %v", got)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel.tsv")
	if err := os.WriteFile(path, []byte("q1\t['d1', 'd2']\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	set, _, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Relevant("1")) != 2 {
		t.Errorf("expected two relevant docs, got %v", set.Relevant("1"))
	}
	if _, _, err := ParseFile(filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
