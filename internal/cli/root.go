// Package cli implements the vsm command line: ad-hoc searches, evaluation
// runs, the four-way weighting/similarity demo and the HTTP service.
package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

// app carries the global flags and the configuration loaded from them.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	output    string

	cfg *config.Config
}

// NewRootCommand creates the vsm command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "vsm",
		Short: "Vector-space retrieval and evaluation engine",
		Long: `vsm ranks a document collection against free-text queries using raw TF or
TF-IDF vectors scored by cosine similarity or Euclidean distance, expands
queries with pseudo-relevance feedback and measures ranking quality with
MRR@k, MAP@k and Recall@k against relevance judgments.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (json, text)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format (text, json)")

	root.AddCommand(newSearchCommand(a))
	root.AddCommand(newRelatedCommand(a))
	root.AddCommand(newFeedbackCommand(a))
	root.AddCommand(newEvaluateCommand(a))
	root.AddCommand(newDemoCommand(a))
	root.AddCommand(newServeCommand(a))
	root.AddCommand(newVersionCommand(version, commit, date))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if err := checkRetrieval(cfg); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	// Command output goes to stdout, so CLI runs log to stderr.
	if err := logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	if a.output != "text" && a.output != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", a.output)
	}
	a.cfg = cfg
	return nil
}

func (a *app) paths() evaluation.Paths {
	c := a.cfg.Corpus
	return evaluation.Paths{
		Documents:     c.DocumentsDir,
		DocumentsGlob: c.DocumentsGlob,
		Queries:       c.QueriesDir,
		Judgments:     c.JudgmentsFile,
	}
}

// buildCollection loads the configured documents. Skipped files are reported
// on w.
func (a *app) buildCollection(w io.Writer) (*collection.Collection, error) {
	coll, problems, err := evaluation.LoadCollection(a.paths(), analyzer.NewEnglish(), a.cfg.Retrieval.Workers)
	for _, p := range problems {
		fmt.Fprintf(w, "warning: %v\n", p)
	}
	return coll, err
}

// retrievalFlags are the per-command overrides of the retrieval defaults.
type retrievalFlags struct {
	method    string
	weighting string
	k         int
	strategy  string
	weight    float64
}

func (f *retrievalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "similarity method (cosine, euclidean)")
	cmd.Flags().StringVarP(&f.weighting, "weighting", "w", "", "weighting scheme (tf, tf-idf)")
	cmd.Flags().IntVarP(&f.k, "k", "k", 0, "number of results")
}

func (f *retrievalFlags) registerFeedback(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "feedback strategy (concatenate, weighted-blend)")
	cmd.Flags().Float64Var(&f.weight, "weight", -1, "weight of the feedback terms for weighted-blend")
}

func (f *retrievalFlags) params(cfg *config.Config) (collection.Params, error) {
	p, err := retrievalParams(cfg.Retrieval)
	if err != nil {
		return p, err
	}
	if f.method != "" {
		if p.Method, err = similarity.ParseMethod(f.method); err != nil {
			return p, err
		}
	}
	if f.weighting != "" {
		if p.Scheme, err = weighting.ParseScheme(f.weighting); err != nil {
			return p, err
		}
	}
	if f.k > 0 {
		p.K = f.k
	}
	return p, nil
}

func (f *retrievalFlags) feedback(cfg *config.Config) (feedback.Config, error) {
	fc, err := feedbackConfig(cfg.Retrieval)
	if err != nil {
		return fc, err
	}
	if f.strategy != "" {
		if fc.Strategy, err = feedback.ParseStrategy(f.strategy); err != nil {
			return fc, err
		}
	}
	if f.weight >= 0 {
		fc.Weight = f.weight
	}
	return fc, fc.Validate()
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			if version == "" {
				version = "dev"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vsm %s (%s) built on %s\n", version, commit, date)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
