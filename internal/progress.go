package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	noColor = os.Getenv("NO_COLOR") != ""
)

// SetNoColor disables styled output
func SetNoColor(disabled bool) {
	noColor = disabled
}

// ColorEnabled reports whether styled output should be written to w
func ColorEnabled(w io.Writer) bool {
	return !noColor && isTerminal(w)
}

// Render applies style when color is enabled for w
func Render(w io.Writer, style lipgloss.Style, s string) string {
	if !ColorEnabled(w) {
		return s
	}
	return style.Render(s)
}

// ProgressStep represents a single step in a multi-step process
type ProgressStep struct {
	Message string
	Fn      func() error
}

// ShowProgress runs fn behind a spinner on a terminal, otherwise it logs the
// message and runs fn directly.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogInfo("%s", message)
		return fn()
	}
	return showSpinner(ctx, os.Stderr, message, fn)
}

// ShowProgressWithSteps shows progress for multiple steps
func ShowProgressWithSteps(ctx context.Context, steps []ProgressStep) error {
	for i, step := range steps {
		msg := fmt.Sprintf("[%d/%d] %s", i+1, len(steps), step.Message)
		if err := ShowProgress(ctx, msg, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}

func showSpinner(ctx context.Context, w io.Writer, message string, fn func() error) error {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_, _ = fmt.Fprintf(w, "\r%s %s", Render(w, progressStyle, frames[i%len(frames)]), message)
			}
		}
	}()

	go func() {
		done <- fn()
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	close(stop)
	<-spinnerDone

	mark, style := "✓", successStyle
	if err != nil {
		mark, style = "✗", errorStyle
	}
	_, _ = fmt.Fprintf(w, "\r%s %s\n", Render(w, style, mark), message)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	printStatus(os.Stdout, successStyle, "✓", "", message)
}

// PrintError prints an error message
func PrintError(message string) {
	printStatus(os.Stderr, errorStyle, "✗", "", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	printStatus(os.Stdout, progressStyle, "ℹ", "", message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	printStatus(os.Stderr, warningStyle, "⚠", "WARNING: ", message)
}

func printStatus(w io.Writer, style lipgloss.Style, mark, plainPrefix, message string) {
	if ColorEnabled(w) {
		_, _ = fmt.Fprintf(w, "%s %s\n", style.Render(mark), message)
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", plainPrefix, message)
}
