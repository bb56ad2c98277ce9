package cmd

import (
	"fmt"

	"github.com/iksnae/cc-convo/internal"
	"github.com/iksnae/cc-convo/internal/meili"
	"github.com/spf13/cobra"
)

type indexOptions struct {
	url       string
	apiKey    string
	index     string
	batchSize int
	project   string
	limit     int
}

func newIndexCmd() *cobra.Command {
	opts := &indexOptions{}
	c := &cobra.Command{
		Use:   "index",
		Short: "Push default-mode events into a MeiliSearch index",
		Long: `Load sessions in default mode and add one document per event to a
MeiliSearch index. Document ids are derived from session id and event
position, so re-indexing replaces documents instead of duplicating them.

Connection settings default to the meili section of the config file and
the MEILI_URL, MEILI_KEY and MEILI_INDEX environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, opts)
		},
	}
	c.Flags().StringVar(&opts.url, "url", "", "MeiliSearch URL (default from config)")
	c.Flags().StringVar(&opts.apiKey, "api-key", "", "MeiliSearch API key (default from config)")
	c.Flags().StringVar(&opts.index, "index", "", "Index name (default from config)")
	c.Flags().IntVar(&opts.batchSize, "batch-size", 500, "Documents per add request")
	c.Flags().StringVar(&opts.project, "project", "", "Filter by project name or path substring")
	c.Flags().IntVar(&opts.limit, "limit", 0, "Index at most N sessions, 0 for all")
	return c
}

func (o *indexOptions) resolve(cfg internal.Config) {
	if o.url == "" {
		o.url = cfg.Meili.URL
	}
	if o.apiKey == "" {
		o.apiKey = cfg.Meili.APIKey
	}
	if o.index == "" {
		o.index = cfg.Meili.Index
	}
}

func runIndex(cmd *cobra.Command, opts *indexOptions) error {
	opts.resolve(app.cfg)

	transcripts, err := app.discover()
	if err != nil {
		return err
	}
	transcripts = internal.FilterByProject(transcripts, opts.project)
	if opts.limit > 0 && len(transcripts) > opts.limit {
		transcripts = transcripts[:opts.limit]
	}

	ctx := commandContext(cmd)
	indexer, err := meili.NewIndexer(ctx, meili.NewSDKBackend(opts.url, opts.apiKey), opts.index)
	if err != nil {
		return err
	}
	indexer.SetBatchSize(opts.batchSize)

	loader := app.loader()
	stats := internal.NewRunStats()
	indexed := 0
	err = internal.ShowProgress(ctx, fmt.Sprintf("Indexing %d session(s) into %s", len(transcripts), opts.index), func() error {
		for _, t := range transcripts {
			lt, err := loader.Load(ctx, t, internal.ModeDefault, stats)
			if err != nil {
				return err
			}
			n, err := indexer.Index(ctx, meili.TranscriptDocuments(lt))
			indexed += n
			if err != nil {
				return fmt.Errorf("index session %s: %w", t.ShortID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]any{
			"index":        opts.index,
			"sessions":     len(transcripts),
			"documents":    indexed,
			"parse_errors": stats.ParseErrors,
		})
	}
	_, _ = fmt.Fprintln(out, render(out, okStyle, fmt.Sprintf("Indexed %d document(s) from %d session(s) into %s.", indexed, len(transcripts), opts.index)))
	warnParseErrors(cmd.ErrOrStderr(), stats.ParseErrors)
	return nil
}

func init() {
	rootCmd.AddCommand(newIndexCmd())
}
