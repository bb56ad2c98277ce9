package cmd

import (
	"fmt"

	"github.com/iksnae/cc-convo/internal"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var sampleFiles int
	var outputDir string
	c := &cobra.Command{
		Use:   "doctor",
		Short: "Check that transcripts can be found and parsed",
		Long: `Run environment checks: the transcript root exists and is readable,
JSONL files are present, a sample of them parses cleanly, the export
directory is writable and the event cache can be opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := internal.DoctorOptions{
				ClaudeDir:   app.claudeDir,
				Window:      app.window,
				SampleFiles: sampleFiles,
				OutputDir:   outputDir,
			}
			if app.cfg.Cache.Enabled && !noCache {
				opts.CachePath = app.cfg.Cache.Path
			}
			checks := internal.RunDoctor(commandContext(cmd), opts)
			failed := internal.FailedChecks(checks)

			out := cmd.OutOrStdout()
			if jsonOutput {
				if err := printJSON(out, map[string]any{"checks": checks, "failed": failed}); err != nil {
					return err
				}
			} else {
				for _, c := range checks {
					status := render(out, okStyle, "OK  ")
					if !c.OK {
						status = render(out, failStyle, "FAIL")
					}
					_, _ = fmt.Fprintf(out, "%s %-22s %s\n", status, c.Name, render(out, dateStyle, c.Details))
				}
			}
			if failed > 0 {
				return fmt.Errorf("doctor found %d failing check(s)", failed)
			}
			return nil
		},
	}
	c.Flags().IntVar(&sampleFiles, "sample-files", 5, "Number of newest transcripts to parse")
	c.Flags().StringVarP(&outputDir, "output", "o", "cc-convo-exports", "Export directory to test for writability")
	return c
}

func init() {
	rootCmd.AddCommand(newDoctorCmd())
}
