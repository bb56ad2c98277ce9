package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/iksnae/cc-convo/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonOutput bool
	noColor    bool
	noCache    bool
	claudeDir  string
	configPath string
	sinceHours int
	sinceDays  int
	until      string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cc-convo",
	Short: "Browse, search and export Claude Code conversation transcripts",
	Long: `A CLI tool to browse, search and export the JSONL conversation
transcripts that Claude Code writes under ~/.claude/projects.

Features:
  • List sessions with record counts and a preview of the first prompt
  • Show a conversation in default, detailed or raw mode
  • Ranked search (smart, exact, regex) with speaker filter and snippets
  • Export to Markdown, JSON, JSONL, YAML or HTML
  • Corpus stats, a doctor check and an optional MeiliSearch index
  • SQLite event cache for fast repeat runs

Quick Start:
  cc-convo sessions list --with-preview     # List recent sessions
  cc-convo sessions show 1 --detailed       # View the newest session
  cc-convo search "rate limit" --speaker user
  cc-convo export --recent 5 --format md`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupApp(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		app.close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&noCache, "no-cache", false, "Bypass the event cache")
	flags.StringVar(&claudeDir, "claude-dir", "", "Transcript root (default ~/.claude/projects)")
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.config/cc-convo/config.yaml)")
	flags.IntVar(&sinceHours, "since-hours", 0, "Only sessions modified in the last N hours")
	flags.IntVar(&sinceDays, "since-days", 0, "Only sessions modified in the last N days")
	flags.StringVar(&until, "until", "", "Only sessions modified before this RFC3339 time")
	rootCmd.MarkFlagsMutuallyExclusive("since-hours", "since-days")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
