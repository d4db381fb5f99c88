package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

type evaluateFlags struct {
	retrievalFlags
	withFeedback bool
	documents    string
	queries      string
	judgments    string
	save         bool
}

func (f *evaluateFlags) register(cmd *cobra.Command) {
	f.retrievalFlags.register(cmd)
	f.registerFeedback(cmd)
	cmd.Flags().BoolVar(&f.withFeedback, "feedback", false, "evaluate the feedback-expanded ranking")
	cmd.Flags().StringVar(&f.documents, "documents", "", "documents directory (overrides corpus.documentsDir)")
	cmd.Flags().StringVar(&f.queries, "queries", "", "queries directory (overrides corpus.queriesDir)")
	cmd.Flags().StringVar(&f.judgments, "judgments", "", "relevance judgments file (overrides corpus.judgmentsFile)")
}

func (f *evaluateFlags) apply(paths evaluation.Paths) evaluation.Paths {
	if f.documents != "" {
		paths.Documents = f.documents
		paths.DocumentsGlob = ""
	}
	if f.queries != "" {
		paths.Queries = f.queries
	}
	if f.judgments != "" {
		paths.Judgments = f.judgments
	}
	return paths
}

func newEvaluateCommand(a *app) *cobra.Command {
	var f evaluateFlags
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure MRR@k, MAP@k and Recall@k over the query set",
		Long: `Rank the collection for every query in the queries directory and score the
rankings against the relevance judgments.

Examples:
  vsm evaluate
  vsm evaluate -k 5 --method euclidean --weighting tf
  vsm evaluate --feedback --strategy weighted-blend --weight 0.5
  vsm evaluate --save   # store the run in PostgreSQL`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEvaluate(cmd, &f)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.save, "save", false, "persist the run to PostgreSQL")
	return cmd
}

func (a *app) evaluationOptions(f *evaluateFlags) (evaluation.Options, string, error) {
	p, err := f.params(a.cfg)
	if err != nil {
		return evaluation.Options{}, "", err
	}
	k := evaluation.DefaultK
	if f.k > 0 {
		k = f.k
	}
	opts := evaluation.Options{K: k, Params: p, Workers: a.cfg.Retrieval.Workers, Analyzer: analyzer.NewEnglish()}
	label := ""
	if f.withFeedback {
		fb, err := f.feedback(a.cfg)
		if err != nil {
			return opts, "", err
		}
		opts.Feedback = &fb
		label = fb.Strategy.String()
	}
	return opts, label, nil
}

func (a *app) runEvaluate(cmd *cobra.Command, f *evaluateFlags) error {
	opts, label, err := a.evaluationOptions(f)
	if err != nil {
		return err
	}
	start := time.Now()
	out, err := evaluation.Run(cmd.Context(), f.apply(a.paths()), opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if f.save {
		if err := a.saveRun(cmd, opts, label, out); err != nil {
			return err
		}
	}
	return a.printOutcome(cmd.OutOrStdout(), out, elapsed)
}

func (a *app) saveRun(cmd *cobra.Command, opts evaluation.Options, label string, out *evaluation.Outcome) error {
	if !a.cfg.Postgres.Enabled {
		return fmt.Errorf("--save needs postgres.enabled in the configuration")
	}
	ctx := cmd.Context()
	db, err := postgres.New(ctx, a.cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()
	st := store.New(db)
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	run := store.NewRun(uuid.NewString(), time.Now(), opts.Params.Method.String(), opts.Params.Scheme.String(), label, out)
	if err := st.SaveRun(ctx, run); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved evaluation run %s\n", run.ID)
	return nil
}

func (a *app) printOutcome(w io.Writer, out *evaluation.Outcome, elapsed time.Duration) error {
	if a.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if err := evaluation.Report(w, out); err != nil {
		return err
	}
	if n := len(out.Problems); n > 0 {
		fmt.Fprintf(w, "Skipped inputs: %s\n", humanize.Comma(int64(n)))
	}
	_, err := fmt.Fprintf(w, "Evaluated %s queries in %s\n",
		humanize.Comma(int64(out.Result.Summary.Queries)), elapsed.Round(time.Millisecond))
	return err
}
