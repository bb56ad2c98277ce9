package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cc-convo/internal"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	projectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// appContext is the per-invocation state built from config and global flags
type appContext struct {
	cfg       internal.Config
	claudeDir string
	window    internal.TimeWindow
	cache     *internal.EventCache
}

var app = &appContext{}

func setupApp(cmd *cobra.Command) error {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := internal.SetLogLevelName(cfg.Log.Level); err != nil {
		return err
	}
	if verbose {
		internal.SetVerbose(true)
	}
	internal.SetNoColor(noColor)

	window, err := internal.NewTimeWindow(sinceHours, sinceDays, until, time.Now())
	if err != nil {
		return err
	}

	dir := cfg.ClaudeDir
	if claudeDir != "" {
		if dir, err = internal.ExpandHome(claudeDir); err != nil {
			return err
		}
	}

	app = &appContext{cfg: cfg, claudeDir: dir, window: window}
	internal.LogDebug("claude dir %s, cache %s (enabled=%t)", dir, cfg.Cache.Path, cfg.Cache.Enabled && !noCache)
	return nil
}

func (a *appContext) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			internal.LogWarn("failed to close event cache: %v", err)
		}
		a.cache = nil
	}
}

func (a *appContext) discover() ([]internal.Transcript, error) {
	return internal.DiscoverTranscripts(a.claudeDir, a.window)
}

// loader returns an event loader backed by the cache when it is enabled and
// can be opened. A broken cache only costs speed.
func (a *appContext) loader() *internal.EventLoader {
	normalizer := internal.NewNormalizer(a.cfg.Summaries.Allow)
	if a.cache == nil && a.cfg.Cache.Enabled && !noCache {
		cache, err := internal.OpenEventCache(a.cfg.Cache.Path)
		if err != nil {
			internal.LogWarn("event cache disabled: %v", err)
		} else {
			a.cache = cache
		}
	}
	return internal.NewEventLoader(normalizer, a.cache)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func render(w io.Writer, style lipgloss.Style, s string) string {
	return internal.Render(w, style, s)
}

func roleStyle(role internal.Role) lipgloss.Style {
	switch role {
	case internal.RoleUser:
		return userStyle
	case internal.RoleAssistant:
		return assistantStyle
	default:
		return dateStyle
	}
}

func warnParseErrors(w io.Writer, n int) {
	if n > 0 {
		_, _ = fmt.Fprintln(w, render(w, warnStyle, fmt.Sprintf("Skipped %d malformed JSON lines.", n)))
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
