package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/cc-convo/internal"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	mode          string
	speaker       string
	caseSensitive bool
	maxResults    int
	contextChars  int
	detailed      bool
	project       string
}

type searchHit struct {
	Rank int `json:"rank"`
	internal.SearchResult
	Project string `json:"project"`
	Path    string `json:"path"`
}

func newSearchCmd() *cobra.Command {
	opts := &searchOptions{}
	c := &cobra.Command{
		Use:   "search <query>",
		Short: "Search conversations",
		Long: `Search user and assistant messages across sessions.

Modes:
  smart  results ranked by query-term coverage, exact phrase first
  exact  literal substring
  regex  regular expression

Results are ordered by relevance, then recency.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}
	c.Flags().StringVar(&opts.mode, "mode", "", "Search mode: smart, exact or regex (default from config)")
	c.Flags().StringVar(&opts.speaker, "speaker", "both", "Restrict to user, assistant or both")
	c.Flags().BoolVar(&opts.caseSensitive, "case-sensitive", false, "Match case exactly")
	c.Flags().IntVar(&opts.maxResults, "max-results", -1, "Maximum number of results, 0 for unlimited (default from config)")
	c.Flags().IntVar(&opts.contextChars, "context-chars", -1, "Snippet context size (default from config)")
	c.Flags().BoolVar(&opts.detailed, "detailed", false, "Also search tool calls and tool results")
	c.Flags().StringVar(&opts.project, "project", "", "Filter by project name or path substring")
	return c
}

func (o *searchOptions) build(base internal.SearchOptions) (internal.SearchOptions, error) {
	opts := base
	if o.mode != "" {
		mode, err := internal.ParseSearchMode(o.mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	speaker, err := internal.ParseSpeaker(o.speaker)
	if err != nil {
		return opts, err
	}
	opts.Speaker = speaker
	opts.CaseSensitive = o.caseSensitive
	if o.maxResults >= 0 {
		opts.MaxResults = o.maxResults
	}
	if o.contextChars >= 0 {
		opts.ContextChars = o.contextChars
	}
	opts.IncludeToolBlocks = o.detailed
	return opts, nil
}

func runSearch(cmd *cobra.Command, query string, o *searchOptions) error {
	opts, err := o.build(app.cfg.SearchOptions())
	if err != nil {
		return err
	}

	transcripts, err := app.discover()
	if err != nil {
		return err
	}
	transcripts = internal.FilterByProject(transcripts, o.project)

	mode := internal.ModeDefault
	if o.detailed {
		mode = internal.ModeDetailed
	}

	ctx := commandContext(cmd)
	stats := internal.NewRunStats()
	var results []internal.SearchResult
	err = internal.ShowProgress(ctx, fmt.Sprintf("Searching %d session(s)...", len(transcripts)), func() error {
		var searchErr error
		results, searchErr = internal.Search(ctx, app.loader().Stream(ctx, transcripts, mode, stats), query, opts)
		return searchErr
	})
	if err != nil {
		return err
	}

	byID := make(map[string]internal.Transcript, len(transcripts))
	for _, t := range transcripts {
		byID[t.ID] = t
	}
	hits := make([]searchHit, len(results))
	for i, r := range results {
		t := byID[r.Ref.SessionID]
		hits[i] = searchHit{Rank: i + 1, SearchResult: r, Project: t.Project, Path: t.Path}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]any{
			"query":        query,
			"mode":         opts.Mode,
			"speaker":      opts.Speaker,
			"results":      hits,
			"parse_errors": stats.ParseErrors,
		})
	}
	displaySearchResults(out, hits)
	warnParseErrors(cmd.ErrOrStderr(), stats.ParseErrors)
	return nil
}

func displaySearchResults(out io.Writer, hits []searchHit) {
	if len(hits) == 0 {
		_, _ = fmt.Fprintln(out, "No matches found.")
		return
	}
	_, _ = fmt.Fprintln(out, render(out, headerStyle, fmt.Sprintf("Found %d result(s).", len(hits))))
	_, _ = fmt.Fprintln(out)
	for _, h := range hits {
		ts := h.Timestamp
		if ts == "" {
			ts = "-"
		}
		_, _ = fmt.Fprintf(out, "#%d %s %s\n",
			h.Rank,
			render(out, idStyle, h.Ref.SessionID),
			render(out, projectStyle, "("+h.Project+")"))
		_, _ = fmt.Fprintf(out, "   %s %s %s\n",
			render(out, dateStyle, ts),
			render(out, roleStyle(h.Speaker), "["+string(h.Speaker)+"]"),
			render(out, dateStyle, fmt.Sprintf("relevance=%.3f", h.Relevance)))
		_, _ = fmt.Fprintf(out, "   %s\n\n", h.Snippet)
	}
}

func init() {
	rootCmd.AddCommand(newSearchCmd())
}
