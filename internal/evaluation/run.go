package evaluation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/judgments"
)

// DefaultK is the reference cut-off.
const DefaultK = 10

// Paths locates an evaluation corpus. DocumentsGlob takes precedence over
// Documents when both are set.
type Paths struct {
	Documents     string `json:"documents,omitempty"`
	DocumentsGlob string `json:"documents_glob,omitempty"`
	Queries       string `json:"queries"`
	Judgments     string `json:"judgments"`
}

type Options struct {
	K        int
	Params   collection.Params
	Workers  int
	Analyzer analyzer.TextAnalyzer
	// Feedback, when set, evaluates the expanded ranking instead of the
	// initial one.
	Feedback *feedback.Config
}

func (o Options) withDefaults() Options {
	if o.K <= 0 {
		o.K = DefaultK
	}
	// Rankings shorter than the cut-off would understate every metric.
	if o.Params.K < o.K {
		o.Params.K = o.K
	}
	if o.Analyzer == nil {
		o.Analyzer = analyzer.NewEnglish()
	}
	return o
}

// Outcome is a complete evaluation run over a corpus on disk.
type Outcome struct {
	Result    MetricResult `json:"result"`
	Documents int          `json:"documents"`
	// Problems lists skipped files and judgment lines.
	Problems []error `json:"-"`
}

// RankWith builds the RankFunc used to evaluate coll. The ranking depth is
// p.K, which should be at least the metric cut-off.
func RankWith(coll *collection.Collection, p collection.Params, fb *feedback.Config) (RankFunc, error) {
	if fb == nil {
		return func(ctx context.Context, q collection.Query) ([]string, error) {
			res, err := coll.SearchQuery(ctx, q, p)
			if err != nil {
				return nil, err
			}
			return res.IDs(), nil
		}, nil
	}
	exp, err := feedback.New(coll, coll.Analyzer(), *fb)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, q collection.Query) ([]string, error) {
		out, err := exp.Run(ctx, q, p)
		if err != nil {
			return nil, err
		}
		return out.Result.IDs(), nil
	}, nil
}

// Run loads documents, queries and judgments from paths, builds the
// collection and evaluates every query. Unreadable inputs abort the run;
// individual bad files and judgment lines are reported in Outcome.Problems.
func Run(ctx context.Context, paths Paths, opts Options) (*Outcome, error) {
	opts = opts.withDefaults()
	coll, problems, err := LoadCollection(paths, opts.Analyzer, opts.Workers)
	if err != nil {
		return nil, err
	}
	out, err := RunOn(ctx, coll, paths, opts)
	if err != nil {
		return nil, err
	}
	out.Problems = append(problems, out.Problems...)
	return out, nil
}

// LoadCollection reads the documents named by paths and builds a collection
// normalised with a. Skipped files are returned as problems.
func LoadCollection(paths Paths, a analyzer.TextAnalyzer, workers int) (*collection.Collection, []error, error) {
	var entries []corpus.Entry
	var problems []error
	var err error
	if paths.DocumentsGlob != "" {
		entries, problems, err = corpus.LoadGlob(paths.DocumentsGlob)
	} else {
		entries, problems, err = corpus.LoadDir(paths.Documents)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading documents: %w", err)
	}
	coll, err := collection.Build(a, corpus.Documents(a, entries), collection.Options{Workers: workers})
	if err != nil {
		return nil, problems, err
	}
	return coll, problems, nil
}

// RunOn evaluates an already built collection with the queries and
// judgments named by paths. Document paths are ignored. Queries are
// normalised with the collection's analyzer.
func RunOn(ctx context.Context, coll *collection.Collection, paths Paths, opts Options) (*Outcome, error) {
	logger := slog.Default().With("component", "evaluation")
	opts = opts.withDefaults()

	set, lineErrs, err := judgments.ParseFile(paths.Judgments)
	if err != nil {
		return nil, err
	}
	var problems []error
	for _, le := range lineErrs {
		problems = append(problems, le)
	}
	queryEntries, queryProblems, err := corpus.LoadDir(paths.Queries)
	if err != nil {
		return nil, fmt.Errorf("loading queries: %w", err)
	}
	problems = append(problems, queryProblems...)
	for _, p := range problems {
		logger.Warn("input skipped", "error", p)
	}

	rank, err := RankWith(coll, opts.Params, opts.Feedback)
	if err != nil {
		return nil, err
	}
	res, err := Evaluate(ctx, corpus.Queries(coll.Analyzer(), queryEntries), set, rank, opts.K, opts.Workers)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: res, Documents: coll.Len(), Problems: problems}, nil
}

// Report writes the run summary with four decimals per metric.
func Report(w io.Writer, out *Outcome) error {
	s := out.Result.Summary
	k := out.Result.K
	_, err := fmt.Fprintf(w,
		"Number of queries processed: %d\nNumber of documents in collection: %d\nMRR@%d: %.4f\nMAP@%d: %.4f\nRecall@%d: %.4f\n",
		s.Queries, out.Documents, k, s.MRR, k, s.MAP, k, s.Recall)
	if err != nil {
		return err
	}
	if s.Failed > 0 {
		_, err = fmt.Fprintf(w, "Failed queries: %d\n", s.Failed)
	}
	return err
}
