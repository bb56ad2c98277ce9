package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/cc-convo/internal"
	"github.com/spf13/cobra"
)

type corpusStats struct {
	Sessions    int              `json:"sessions"`
	RunID       string           `json:"run_id"`
	Records     int              `json:"records"`
	Events      int              `json:"events"`
	ParseErrors int              `json:"parse_errors"`
	Skipped     int              `json:"skipped_records"`
	RecordTypes []internal.Count `json:"record_types"`
	BlockTypes  []internal.Count `json:"block_types"`
	Models      []internal.Count `json:"models"`
}

func newStatsCmd() *cobra.Command {
	var top int
	var project string
	c := &cobra.Command{
		Use:   "stats",
		Short: "Show record, block and model counts across sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, project, top)
		},
	}
	c.Flags().IntVar(&top, "top", 20, "Number of entries per table, 0 for all")
	c.Flags().StringVar(&project, "project", "", "Filter by project name or path substring")
	return c
}

// runStats always decodes the files; cached events carry no record counters
func runStats(cmd *cobra.Command, project string, top int) error {
	transcripts, err := app.discover()
	if err != nil {
		return err
	}
	transcripts = internal.FilterByProject(transcripts, project)

	ctx := commandContext(cmd)
	normalizer := internal.NewNormalizer(app.cfg.Summaries.Allow)
	stats := internal.NewRunStats()
	err = internal.ShowProgress(ctx, fmt.Sprintf("Reading %d session(s)", len(transcripts)), func() error {
		for _, t := range transcripts {
			err := internal.ReadTranscriptFile(ctx, t.Path, stats, func(rec *internal.RawRecord) error {
				normalizer.Normalize(rec, internal.ModeDefault, stats)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	result := corpusStats{
		Sessions:    len(transcripts),
		RunID:       stats.RunID,
		Records:     stats.Records,
		Events:      stats.Events,
		ParseErrors: stats.ParseErrors,
		Skipped:     stats.SkippedRecords,
		RecordTypes: internal.TopN(stats.RecordTypes, top),
		BlockTypes:  internal.TopN(stats.BlockTypes, top),
		Models:      internal.TopN(stats.Models, top),
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, result)
	}
	displayStats(out, result)
	return nil
}

func displayStats(out io.Writer, s corpusStats) {
	_, _ = fmt.Fprintln(out, render(out, headerStyle, "Corpus stats"))
	_, _ = fmt.Fprintf(out, "Sessions: %d\n", s.Sessions)
	_, _ = fmt.Fprintf(out, "Records: %d\n", s.Records)
	_, _ = fmt.Fprintf(out, "Default-mode events: %d\n", s.Events)
	_, _ = fmt.Fprintf(out, "Parse errors: %d\n", s.ParseErrors)

	sections := []struct {
		title  string
		counts []internal.Count
	}{
		{"Record types", s.RecordTypes},
		{"Content block types", s.BlockTypes},
		{"Models", s.Models},
	}
	for _, section := range sections {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, render(out, titleStyle, section.title))
		if len(section.counts) == 0 {
			_, _ = fmt.Fprintln(out, "  (none)")
			continue
		}
		for _, c := range section.counts {
			_, _ = fmt.Fprintf(out, "  %-32s %d\n", c.Key, c.Count)
		}
	}
}

func init() {
	rootCmd.AddCommand(newStatsCmd())
}
