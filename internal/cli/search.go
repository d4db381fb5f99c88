package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher"
)

func newSearchCommand(a *app) *cobra.Command {
	var f retrievalFlags
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Rank the collection against a query",
		Long: `Rank the configured document collection against a free-text query.

Examples:
  vsm search Typhoon Taiwan war
  vsm search --method euclidean --weighting tf -k 5 "election campaign"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, &f, strings.Join(args, " "), false)
		},
	}
	f.register(cmd)
	return cmd
}

func newFeedbackCommand(a *app) *cobra.Command {
	var f retrievalFlags
	cmd := &cobra.Command{
		Use:   "feedback <query...>",
		Short: "Search with pseudo-relevance feedback from the top document",
		Long: `Search, take the nouns and verbs of the top-ranked document as feedback
terms and search again with the expanded query.

Examples:
  vsm feedback Typhoon Taiwan war
  vsm feedback --strategy weighted-blend --weight 0.3 "election campaign"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, &f, strings.Join(args, " "), true)
		},
	}
	f.register(cmd)
	f.registerFeedback(cmd)
	return cmd
}

func newRelatedCommand(a *app) *cobra.Command {
	var f retrievalFlags
	cmd := &cobra.Command{
		Use:   "related <doc-id>",
		Short: "Rank the collection against an existing document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, p, err := a.service(cmd, &f)
			if err != nil {
				return err
			}
			resp, err := svc.Related(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return a.printResponse(cmd.OutOrStdout(), svc.Collection(), resp)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) service(cmd *cobra.Command, f *retrievalFlags) (*searcher.Service, collection.Params, error) {
	p, err := f.params(a.cfg)
	if err != nil {
		return nil, p, err
	}
	fb, err := f.feedback(a.cfg)
	if err != nil {
		return nil, p, err
	}
	coll, err := a.buildCollection(cmd.ErrOrStderr())
	if err != nil {
		return nil, p, err
	}
	return searcher.New(coll, searcher.Options{Defaults: p, Feedback: fb, Workers: a.cfg.Retrieval.Workers}), p, nil
}

func (a *app) runSearch(cmd *cobra.Command, f *retrievalFlags, query string, withFeedback bool) error {
	svc, p, err := a.service(cmd, f)
	if err != nil {
		return err
	}
	resp, err := svc.Search(cmd.Context(), searcher.SearchRequest{Query: query, Params: p, Feedback: withFeedback})
	if err != nil {
		return err
	}
	return a.printResponse(cmd.OutOrStdout(), svc.Collection(), resp)
}

func (a *app) printResponse(w io.Writer, coll *collection.Collection, resp *searcher.Response) error {
	if a.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Fprintf(w, "Collection: %s documents, %s terms\n",
		humanize.Comma(int64(coll.Len())), humanize.Comma(int64(coll.Index().Size())))
	if resp.DocID != "" {
		fmt.Fprintf(w, "Documents related to %s using %s and %s:\n", resp.DocID, resp.Weighting, resp.Method)
	} else {
		fmt.Fprintf(w, "Search results for %q using %s and %s:\n", resp.Query, resp.Weighting, resp.Method)
	}
	if len(resp.FeedbackTerms) > 0 {
		fmt.Fprintf(w, "Feedback terms: %s\n", strings.Join(resp.FeedbackTerms, " "))
	}
	return ranker.Format(w, ranker.Result{Hits: resp.Hits})
}
