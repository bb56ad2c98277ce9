package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const transcriptExt = ".jsonl"

// TimeWindow bounds transcript modification times. Zero values are open.
type TimeWindow struct {
	Since time.Time
	Until time.Time
}

// NewTimeWindow builds a window from the global --since-hours, --since-days
// and --until flags. The two since flags are mutually exclusive.
func NewTimeWindow(sinceHours, sinceDays int, until string, now time.Time) (TimeWindow, error) {
	var w TimeWindow
	if sinceHours > 0 && sinceDays > 0 {
		return w, fmt.Errorf("--since-hours and --since-days cannot be combined")
	}
	if sinceHours < 0 || sinceDays < 0 {
		return w, fmt.Errorf("since values must be positive")
	}
	switch {
	case sinceHours > 0:
		w.Since = now.Add(-time.Duration(sinceHours) * time.Hour)
	case sinceDays > 0:
		w.Since = now.AddDate(0, 0, -sinceDays)
	}
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return w, fmt.Errorf("invalid --until %q (expected RFC3339): %w", until, err)
		}
		w.Until = t
	}
	return w, nil
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	if !w.Since.IsZero() && t.Before(w.Since) {
		return false
	}
	if !w.Until.IsZero() && t.After(w.Until) {
		return false
	}
	return true
}

// Transcript describes one session file on disk
type Transcript struct {
	Index   int       `json:"index" yaml:"index"`
	ID      string    `json:"id" yaml:"id"`
	ShortID string    `json:"id_short" yaml:"id_short"`
	Project string    `json:"project" yaml:"project"`
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"modified" yaml:"modified"`
	Size    int64     `json:"size_bytes" yaml:"size_bytes"`
}

// ModifiedISO returns the modification time as RFC3339 in UTC, to the second
func (t Transcript) ModifiedISO() string {
	return t.ModTime.UTC().Format(time.RFC3339)
}

// ShortID returns the first 8 characters of a session id
func ShortID(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return id
	}
	return string(r[:8])
}

// DefaultClaudeDir returns the transcript root used when none is configured
func DefaultClaudeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// DiscoverTranscripts walks claudeDir for transcript files inside window.
// Results are sorted newest first, then by path, and numbered from 1.
func DiscoverTranscripts(claudeDir string, window TimeWindow) ([]Transcript, error) {
	info, err := os.Stat(claudeDir)
	if err != nil {
		return nil, &StorageError{Path: claudeDir, Op: "stat", Err: err}
	}
	if !info.IsDir() {
		return nil, &StorageError{Path: claudeDir, Op: "stat", Err: errors.New("not a directory")}
	}

	var transcripts []Transcript
	var skippedDirs int
	err = filepath.WalkDir(claudeDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip directories we can't access
			if d != nil && d.IsDir() && path != claudeDir {
				skippedDirs++
				return filepath.SkipDir
			}
			if path == claudeDir {
				return err
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != transcriptExt {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			LogDebug("skipping %s: %v", path, err)
			return nil
		}
		if !fi.Mode().IsRegular() || !window.Contains(fi.ModTime()) {
			return nil
		}

		id := strings.TrimSuffix(filepath.Base(path), transcriptExt)
		project := filepath.Base(filepath.Dir(path))
		if filepath.Dir(path) == filepath.Clean(claudeDir) {
			project = "unknown"
		}
		transcripts = append(transcripts, Transcript{
			ID:      id,
			ShortID: ShortID(id),
			Project: project,
			Path:    path,
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, &StorageError{Path: claudeDir, Op: "walk", Err: err}
	}
	if skippedDirs > 0 {
		LogDebug("skipped %d unreadable directories under %s", skippedDirs, claudeDir)
	}

	sort.Slice(transcripts, func(i, j int) bool {
		a, b := transcripts[i], transcripts[j]
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Path < b.Path
	})
	for i := range transcripts {
		transcripts[i].Index = i + 1
	}
	return transcripts, nil
}

// ResolveTranscript finds a transcript by 1-based index, full id or short id.
// A number within the list range is an index; any other target is matched
// against ids, so all-digit short ids still resolve.
func ResolveTranscript(transcripts []Transcript, target string) (*Transcript, error) {
	target = strings.TrimSpace(target)
	index, err := strconv.Atoi(target)
	isIndex := err == nil
	if isIndex && index >= 1 && index <= len(transcripts) {
		return &transcripts[index-1], nil
	}
	for i := range transcripts {
		if transcripts[i].ID == target || transcripts[i].ShortID == target {
			return &transcripts[i], nil
		}
	}
	switch {
	case isIndex && index <= 0:
		return nil, fmt.Errorf("session index is 1-based; got %d", index)
	case isIndex:
		return nil, fmt.Errorf("invalid session index %d (have %d sessions)", index, len(transcripts))
	}
	return nil, fmt.Errorf("session not found: %s", target)
}

// FilterByProject keeps transcripts whose project name or path contains
// substr, case-insensitively.
func FilterByProject(transcripts []Transcript, substr string) []Transcript {
	substr = strings.ToLower(strings.TrimSpace(substr))
	if substr == "" {
		return transcripts
	}
	var out []Transcript
	for _, t := range transcripts {
		if strings.Contains(strings.ToLower(t.Project), substr) ||
			strings.Contains(strings.ToLower(t.Path), substr) {
			out = append(out, t)
		}
	}
	return out
}
