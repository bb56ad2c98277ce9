package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/cc-convo/internal"
	"github.com/spf13/cobra"
)

type listOptions struct {
	limit       int
	project     string
	withPreview bool
}

type showOptions struct {
	mode     string
	detailed bool
	raw      bool
	source   bool
	maxLines int
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and view sessions",
}

func newListCmd(use string, hidden bool) *cobra.Command {
	opts := &listOptions{}
	c := &cobra.Command{
		Use:    use,
		Short:  "List sessions, newest first",
		Hidden: hidden,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}
	c.Flags().IntVar(&opts.limit, "limit", 50, "Maximum number of sessions to list")
	c.Flags().StringVar(&opts.project, "project", "", "Filter by project name or path substring")
	c.Flags().BoolVar(&opts.withPreview, "with-preview", false, "Show the first user prompt of each session")
	return c
}

func newShowCmd(use string, hidden bool) *cobra.Command {
	opts := &showOptions{}
	c := &cobra.Command{
		Use:   use + " <index|id|short-id>",
		Short: "Show the conversation of one session",
		Long: `Show the conversation of one session.

Modes:
  default   user and assistant text only
  detailed  also thinking, tool calls, tool results and selected system records
  raw       one event per record, nothing filtered

--source prints the transcript lines exactly as stored.`,
		Hidden: hidden,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}
	c.Flags().StringVar(&opts.mode, "mode", "default", "Normalization mode: default, detailed or raw")
	c.Flags().BoolVar(&opts.detailed, "detailed", false, "Shorthand for --mode detailed")
	c.Flags().BoolVar(&opts.raw, "raw", false, "Shorthand for --mode raw")
	c.Flags().BoolVar(&opts.source, "source", false, "Print the source JSONL lines")
	c.Flags().IntVarP(&opts.maxLines, "max-lines", "n", 0, "Limit number of events shown")
	c.MarkFlagsMutuallyExclusive("detailed", "raw")
	return c
}

func (o *showOptions) resolveMode() (internal.Mode, error) {
	switch {
	case o.detailed:
		return internal.ModeDetailed, nil
	case o.raw:
		return internal.ModeRaw, nil
	default:
		return internal.ParseMode(o.mode)
	}
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	transcripts, err := app.discover()
	if err != nil {
		return err
	}
	transcripts = internal.FilterByProject(transcripts, opts.project)
	if opts.limit > 0 && len(transcripts) > opts.limit {
		transcripts = transcripts[:opts.limit]
	}

	summaries := make([]*internal.SessionSummary, 0, len(transcripts))
	for _, t := range transcripts {
		summary, err := internal.SummarizeTranscript(commandContext(cmd), t, opts.withPreview)
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, summaries)
	}
	displaySessions(out, summaries, opts.withPreview)
	return nil
}

func displaySessions(out io.Writer, summaries []*internal.SessionSummary, withPreview bool) {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(out, render(out, headerStyle, "No sessions found"))
		return
	}
	_, _ = fmt.Fprintln(out, render(out, headerStyle, fmt.Sprintf("Found %d session(s)", len(summaries))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	cols := []string{"#", "ID", "Project", "Modified", "Size", "User", "Asst", "Other"}
	if withPreview {
		cols = append(cols, "Preview")
	}
	for i, c := range cols {
		cols[i] = render(out, titleStyle, c)
	}
	_, _ = fmt.Fprintln(w, strings.Join(cols, "\t"))

	for _, s := range summaries {
		t := s.Session
		row := []string{
			fmt.Sprint(t.Index),
			render(out, idStyle, t.ShortID),
			render(out, projectStyle, internal.Ellipsize(t.Project, 26)),
			render(out, dateStyle, humanize.Time(t.ModTime)),
			humanize.Bytes(uint64(t.Size)),
			fmt.Sprint(s.UserMessages),
			fmt.Sprint(s.AssistantMessages),
			fmt.Sprint(s.OtherRecords),
		}
		if withPreview {
			preview := s.Preview
			if preview == "" {
				preview = "-"
			}
			row = append(row, preview)
		}
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, render(out, idStyle, fmt.Sprintf("Tip: cc-convo sessions show %d (or %s)", summaries[0].Session.Index, summaries[0].Session.ShortID)))
}

func runShow(cmd *cobra.Command, target string, opts *showOptions) error {
	mode, err := opts.resolveMode()
	if err != nil {
		return err
	}
	transcripts, err := app.discover()
	if err != nil {
		return err
	}
	t, err := internal.ResolveTranscript(transcripts, target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.source {
		return showSource(out, *t)
	}

	loaded, err := app.loader().Load(commandContext(cmd), *t, mode, nil)
	if err != nil {
		return err
	}
	events := loaded.Events
	if opts.maxLines > 0 && len(events) > opts.maxLines {
		events = events[:opts.maxLines]
	}

	if jsonOutput {
		return printJSON(out, map[string]any{
			"session":      t,
			"mode":         mode,
			"parse_errors": loaded.ParseErrors,
			"events":       events,
		})
	}

	displaySessionHeader(out, *t, len(loaded.Events))
	for i, ev := range events {
		displayEvent(out, i+1, len(loaded.Events), ev)
	}
	if remaining := len(loaded.Events) - len(events); remaining > 0 {
		_, _ = fmt.Fprintln(out, render(out, dateStyle, fmt.Sprintf("... (%d more event(s))", remaining)))
	}
	warnParseErrors(cmd.ErrOrStderr(), loaded.ParseErrors)
	return nil
}

func showSource(out io.Writer, t internal.Transcript) error {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return &internal.StorageError{Path: t.Path, Op: "read", Err: err}
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if jsonOutput {
		return printJSON(out, map[string]any{"session": t, "records": lines})
	}
	_, _ = fmt.Fprintln(out, render(out, headerStyle, "Session "+t.ID))
	for _, line := range lines {
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}

func displaySessionHeader(out io.Writer, t internal.Transcript, events int) {
	_, _ = fmt.Fprintln(out, render(out, headerStyle, "Session "+t.ID))
	meta := []string{
		"Project: " + t.Project,
		"Modified: " + t.ModifiedISO(),
		fmt.Sprintf("Events: %d", events),
	}
	_, _ = fmt.Fprintln(out, render(out, dateStyle, strings.Join(meta, " • ")))
	_, _ = fmt.Fprintln(out, render(out, dateStyle, "Path: "+t.Path))
	_, _ = fmt.Fprintln(out)
}

func displayEvent(out io.Writer, index, total int, ev internal.NormalizedEvent) {
	header := render(out, roleStyle(ev.Role), "["+string(ev.Role)+"]") +
		" " + render(out, dateStyle, fmt.Sprintf("%d/%d", index, total))
	if ev.Timestamp != "" {
		header += " " + render(out, dateStyle, ev.Timestamp)
	}
	if model := ev.Model(); model != "" {
		header += " " + render(out, idStyle, model)
	}
	_, _ = fmt.Fprintln(out, header)

	content := strings.TrimSpace(internal.RenderEventText(ev))
	if content == "" {
		content = "(empty)"
	}
	_, _ = fmt.Fprintln(out, wrapText(content, 100))
	_, _ = fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len([]rune(line)) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		currentLine := ""
		for _, word := range strings.Fields(line) {
			switch {
			case currentLine == "":
				currentLine = word
			case len([]rune(currentLine))+len([]rune(word))+1 > width:
				wrapped = append(wrapped, currentLine)
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	sessionsCmd.AddCommand(newListCmd("list", false), newShowCmd("show", false))
	rootCmd.AddCommand(sessionsCmd, newListCmd("list", true), newShowCmd("view", true))
}
