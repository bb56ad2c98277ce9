package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CheckResult is the outcome of one doctor check
type CheckResult struct {
	Name    string `json:"name" yaml:"name"`
	OK      bool   `json:"ok" yaml:"ok"`
	Details string `json:"details" yaml:"details"`
}

// DoctorOptions selects what the doctor checks
type DoctorOptions struct {
	ClaudeDir   string
	Window      TimeWindow
	SampleFiles int
	OutputDir   string
	CachePath   string // empty skips the cache check
}

// RunDoctor checks that transcripts can be found and parsed and that the
// output and cache locations are usable. It never stops at the first failure.
func RunDoctor(ctx context.Context, opts DoctorOptions) []CheckResult {
	checks := []CheckResult{
		checkPathExists("claude_dir_exists", opts.ClaudeDir),
		checkPathReadable("claude_dir_readable", opts.ClaudeDir),
	}

	transcripts, err := DiscoverTranscripts(opts.ClaudeDir, opts.Window)
	if err != nil {
		LogDebug("discovery failed: %v", err)
	}
	checks = append(checks, CheckResult{
		Name:    "jsonl_files_found",
		OK:      len(transcripts) > 0,
		Details: fmt.Sprintf("found %d", len(transcripts)),
	})

	checks = append(checks, checkSampleParse(ctx, transcripts, opts.SampleFiles))

	checks = append(checks, CheckResult{
		Name:    "output_dir_writable",
		OK:      EnsureWritableDir(opts.OutputDir) == nil,
		Details: opts.OutputDir,
	})

	if opts.CachePath != "" {
		checks = append(checks, checkCache(opts.CachePath))
	}
	return checks
}

// FailedChecks counts the checks that did not pass
func FailedChecks(checks []CheckResult) int {
	n := 0
	for _, c := range checks {
		if !c.OK {
			n++
		}
	}
	return n
}

// EnsureWritableDir creates dir if needed and proves a file can be written
func EnsureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StorageError{Path: dir, Op: "mkdir", Err: err}
	}
	probe := filepath.Join(dir, ".cc-convo-write-test")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return &StorageError{Path: probe, Op: "write", Err: err}
	}
	return os.Remove(probe)
}

func checkPathExists(name, path string) CheckResult {
	_, err := os.Stat(path)
	return CheckResult{Name: name, OK: err == nil, Details: path}
}

func checkPathReadable(name, path string) CheckResult {
	_, err := os.ReadDir(path)
	return CheckResult{Name: name, OK: err == nil, Details: path}
}

func checkSampleParse(ctx context.Context, transcripts []Transcript, sample int) CheckResult {
	if sample > 0 && len(transcripts) > sample {
		transcripts = transcripts[:sample]
	}
	stats := NewRunStats()
	for _, t := range transcripts {
		if err := ReadTranscriptFile(ctx, t.Path, stats, func(*RawRecord) error { return nil }); err != nil {
			return CheckResult{Name: "sample_parse", Details: err.Error()}
		}
	}
	return CheckResult{
		Name:    "sample_parse",
		OK:      stats.Records > 0 && stats.ParseErrors == 0,
		Details: fmt.Sprintf("records=%d parse_errors=%d", stats.Records, stats.ParseErrors),
	}
}

func checkCache(path string) CheckResult {
	cache, err := OpenEventCache(path)
	if err != nil {
		return CheckResult{Name: "cache_openable", Details: err.Error()}
	}
	entries, err := cache.Entries()
	_ = cache.Close()
	if err != nil {
		return CheckResult{Name: "cache_openable", Details: err.Error()}
	}
	return CheckResult{
		Name:    "cache_openable",
		OK:      true,
		Details: fmt.Sprintf("%s (%d entries)", path, len(entries)),
	}
}
