package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/iksnae/cc-convo/internal"
	"github.com/iksnae/cc-convo/internal/export"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	sessions   []string
	indexes    []int
	recent     int
	all        bool
	search     string
	format     string
	outputDir  string
	detailed   bool
	singleFile bool
	yes        bool
}

type exportSummary struct {
	ExportedSessions int      `json:"exported_sessions"`
	OutputFiles      []string `json:"output_files"`
	ParseErrors      int      `json:"parse_errors"`
	Format           string   `json:"format"`
	Detailed         bool     `json:"detailed"`
	SingleFile       bool     `json:"single_file"`
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}
	c := &cobra.Command{
		Use:   "export",
		Short: "Export sessions to file",
		Long: `Export sessions to Markdown, JSON, JSONL, YAML or HTML.

Select sessions with any combination of --session, --index, --recent,
--search and --all. Each session is written to its own file unless
--single-file is given.

Examples:
  cc-convo export --recent 3
  cc-convo export --session 3f2a9c1e --format json
  cc-convo export --search "migration" --single-file --format html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}
	c.Flags().StringArrayVar(&opts.sessions, "session", nil, "Session id, short id or list index (repeatable)")
	c.Flags().IntSliceVar(&opts.indexes, "index", nil, "1-based list index (repeatable)")
	c.Flags().IntVar(&opts.recent, "recent", 0, "Export the N most recent sessions")
	c.Flags().BoolVar(&opts.all, "all", false, "Export every session in the time window")
	c.Flags().StringVar(&opts.search, "search", "", "Export sessions with a smart-search match")
	c.Flags().StringVarP(&opts.format, "format", "f", "md", "Export format (md, json, jsonl, yaml, html)")
	c.Flags().StringVarP(&opts.outputDir, "output", "o", "cc-convo-exports", "Output directory")
	c.Flags().BoolVar(&opts.detailed, "detailed", false, "Include thinking, tool calls and tool results")
	c.Flags().BoolVar(&opts.singleFile, "single-file", false, "Write all sessions into one bundle file")
	c.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	return c
}

func (o *exportOptions) hasSelection() bool {
	return len(o.sessions) > 0 || len(o.indexes) > 0 || o.recent > 0 || o.all || o.search != ""
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	if !opts.hasSelection() {
		return errors.New("no selection flags provided: use --session, --index, --recent, --search or --all")
	}
	exporter, err := export.NewExporter(opts.format)
	if err != nil {
		return err
	}

	transcripts, err := app.discover()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	selected, err := selectTranscripts(cmd, transcripts, opts)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return errors.New("no sessions matched the selection")
	}

	if opts.all && !opts.yes && !jsonOutput {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Export %d session(s) to %s?", len(selected), opts.outputDir))
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	mode := internal.ModeDefault
	if opts.detailed {
		mode = internal.ModeDetailed
	}

	stats := internal.NewRunStats()
	var loaded []*internal.LoadedTranscript
	err = internal.ShowProgress(ctx, fmt.Sprintf("Loading %d session(s)", len(selected)), func() error {
		var loadErr error
		loaded, loadErr = app.loader().LoadAll(ctx, selected, mode, stats)
		return loadErr
	})
	if err != nil {
		return err
	}

	docs := make([]internal.ExportDocument, len(loaded))
	for i, lt := range loaded {
		docs[i] = internal.BuildExportDocument(lt.Transcript, lt.Events)
	}

	summary := exportSummary{
		ExportedSessions: len(docs),
		OutputFiles:      []string{},
		ParseErrors:      stats.ParseErrors,
		Format:           exporter.Extension(),
		Detailed:         opts.detailed,
		SingleFile:       opts.singleFile,
	}

	if err := internal.EnsureWritableDir(opts.outputDir); err != nil {
		return err
	}
	if opts.singleFile {
		path, err := export.WriteBundleFile(opts.outputDir, docs, exporter, time.Now())
		if err != nil {
			return err
		}
		summary.OutputFiles = append(summary.OutputFiles, path)
	} else {
		for _, doc := range docs {
			path, err := export.WriteSessionFile(opts.outputDir, doc, exporter)
			if err != nil {
				return err
			}
			summary.OutputFiles = append(summary.OutputFiles, path)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, summary)
	}
	_, _ = fmt.Fprintln(out, render(out, okStyle, fmt.Sprintf("Exported %d session(s) to %d file(s).", summary.ExportedSessions, len(summary.OutputFiles))))
	for _, f := range summary.OutputFiles {
		_, _ = fmt.Fprintln(out, "  "+f)
	}
	warnParseErrors(cmd.ErrOrStderr(), summary.ParseErrors)
	return nil
}

// selectTranscripts unions every selection flag, drops duplicates and
// returns the result in list order.
func selectTranscripts(cmd *cobra.Command, transcripts []internal.Transcript, opts *exportOptions) ([]internal.Transcript, error) {
	picked := make(map[string]internal.Transcript)
	add := func(t internal.Transcript) { picked[t.ID] = t }

	for _, target := range opts.sessions {
		t, err := internal.ResolveTranscript(transcripts, target)
		if err != nil {
			return nil, err
		}
		add(*t)
	}
	for _, idx := range opts.indexes {
		if idx < 1 {
			return nil, fmt.Errorf("--index uses 1-based indexing (got %d)", idx)
		}
		if idx > len(transcripts) {
			return nil, fmt.Errorf("--index %d is out of range (%d sessions)", idx, len(transcripts))
		}
		add(transcripts[idx-1])
	}
	if opts.recent > 0 {
		for i := 0; i < opts.recent && i < len(transcripts); i++ {
			add(transcripts[i])
		}
	}
	if opts.all {
		for _, t := range transcripts {
			add(t)
		}
	}
	if opts.search != "" {
		ctx := commandContext(cmd)
		searchOpts := internal.DefaultSearchOptions()
		searchOpts.MaxResults = 0
		results, err := internal.Search(ctx, app.loader().Stream(ctx, transcripts, internal.ModeDefault, nil), opts.search, searchOpts)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]internal.Transcript, len(transcripts))
		for _, t := range transcripts {
			byID[t.ID] = t
		}
		for _, r := range results {
			if t, ok := byID[r.Ref.SessionID]; ok {
				add(t)
			}
		}
	}

	selected := make([]internal.Transcript, 0, len(picked))
	for _, t := range picked {
		selected = append(selected, t)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Index < selected[j].Index })
	return selected, nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func init() {
	rootCmd.AddCommand(newExportCmd())
}
