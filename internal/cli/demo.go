package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
)

// DefaultDemoQuery is the query of the reference news workload.
const DefaultDemoQuery = "Typhoon Taiwan war"

type demoFlags struct {
	evaluateFlags
	query string
	news  string
}

func newDemoCommand(a *app) *cobra.Command {
	var f demoFlags
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Search with every weighting and similarity pair, then evaluate",
		Long: `Build the news collection, print the top results of one query for raw TF and
TF-IDF under both cosine similarity and Euclidean distance, repeat the
TF-IDF cosine search with relevance feedback and finally run the full
evaluation over the query set.

Examples:
  vsm demo
  vsm demo --news 'EnglishNews/News*.txt' --query "Typhoon Taiwan war"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDemo(cmd, &f)
		},
	}
	f.evaluateFlags.register(cmd)
	cmd.Flags().StringVarP(&f.query, "query", "q", DefaultDemoQuery, "query for the four-way search")
	cmd.Flags().StringVar(&f.news, "news", "", "news documents, a directory or a glob (defaults to the corpus documents)")
	return cmd
}

var demoCombinations = []struct {
	scheme weighting.Scheme
	method similarity.Method
	label  string
}{
	{weighting.RawTF, similarity.Cosine, "Raw TF and Cosine similarity"},
	{weighting.RawTF, similarity.Euclidean, "Raw TF and Euclidean distance"},
	{weighting.TFIDF, similarity.Cosine, "TF-IDF and Cosine similarity"},
	{weighting.TFIDF, similarity.Euclidean, "TF-IDF and Euclidean distance"},
}

func (a *app) runDemo(cmd *cobra.Command, f *demoFlags) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	k := 10
	if f.k > 0 {
		k = f.k
	}

	newsPaths := a.paths()
	switch {
	case f.news == "":
	case strings.ContainsAny(f.news, "*?["):
		newsPaths.DocumentsGlob = f.news
	default:
		newsPaths.Documents, newsPaths.DocumentsGlob = f.news, ""
	}

	fmt.Fprintln(w, "Comparing weighting schemes and similarity measures")
	start := time.Now()
	coll, problems, err := evaluation.LoadCollection(newsPaths, analyzer.NewEnglish(), a.cfg.Retrieval.Workers)
	for _, p := range problems {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", p)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Built vector space over %s documents and %s terms in %s\n",
		humanize.Comma(int64(coll.Len())), humanize.Comma(int64(coll.Index().Size())), time.Since(start).Round(time.Millisecond))

	for _, c := range demoCombinations {
		p := collection.Params{Method: c.method, Scheme: c.scheme, K: k}
		res, err := coll.Search(ctx, strings.Fields(f.query), p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nSearch results for %q using %s:\n", f.query, c.label)
		if err := ranker.Format(w, res); err != nil {
			return err
		}
	}

	fbCfg, err := f.feedback(a.cfg)
	if err != nil {
		return err
	}
	exp, err := feedback.New(coll, coll.Analyzer(), fbCfg)
	if err != nil {
		return err
	}
	q := collection.NewQuery(coll.Analyzer(), "", f.query)
	out, err := exp.Run(ctx, q, collection.Params{Method: similarity.Cosine, Scheme: weighting.TFIDF, K: k})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSearch results for %q using TF-IDF, Cosine similarity and %s relevance feedback:\n", f.query, fbCfg.Strategy)
	if len(out.Terms) > 0 {
		fmt.Fprintf(w, "Feedback terms: %s\n", strings.Join(out.Terms, " "))
	}
	if err := ranker.Format(w, out.Result); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nRunning full evaluation...")
	opts, _, err := a.evaluationOptions(&f.evaluateFlags)
	if err != nil {
		return err
	}
	start = time.Now()
	res, err := evaluation.Run(ctx, f.apply(a.paths()), opts)
	if err != nil {
		return err
	}
	return a.printOutcome(w, res, time.Since(start))
}
