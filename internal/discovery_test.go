package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/cc-convo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeWindow(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	w, err := NewTimeWindow(3, 0, "", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-3*time.Hour), w.Since)
	assert.True(t, w.Until.IsZero())

	w, err = NewTimeWindow(0, 2, "2025-06-09T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -2), w.Since)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), w.Until)
	assert.True(t, w.Contains(time.Date(2025, 6, 8, 18, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 6, 9, 0, 0, 1, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)))

	_, err = NewTimeWindow(1, 1, "", now)
	assert.Error(t, err)
	_, err = NewTimeWindow(0, 0, "yesterday", now)
	assert.Error(t, err)

	assert.True(t, TimeWindow{}.Contains(time.Time{}))
}

func TestDiscoverTranscripts(t *testing.T) {
	now := time.Now()
	root := testutil.CreateClaudeDir(t, now)
	// Non-transcript files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(root, "-home-dev-beta", "notes.txt"), []byte("x"), 0644))

	transcripts, err := DiscoverTranscripts(root, TimeWindow{})
	require.NoError(t, err)
	require.Len(t, transcripts, 3)

	assert.Equal(t, "33333333-cccc-4000-8000-000000000003", transcripts[0].ID)
	assert.Equal(t, "33333333", transcripts[0].ShortID)
	assert.Equal(t, "-home-dev-beta", transcripts[0].Project)
	assert.Equal(t, 1, transcripts[0].Index)
	assert.Equal(t, 3, transcripts[2].Index)
	assert.True(t, transcripts[0].ModTime.After(transcripts[1].ModTime))
	assert.Greater(t, transcripts[0].Size, int64(0))

	window, err := NewTimeWindow(0, 3, "", now)
	require.NoError(t, err)
	recent, err := DiscoverTranscripts(root, window)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestDiscoverTranscripts_MissingDir(t *testing.T) {
	_, err := DiscoverTranscripts(filepath.Join(t.TempDir(), "nope"), TimeWindow{})
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "stat", storageErr.Op)
}

func TestResolveTranscript(t *testing.T) {
	transcripts := []Transcript{
		{Index: 1, ID: "aaaaaaaa-1111", ShortID: "aaaaaaaa"},
		{Index: 2, ID: "bbbbbbbb-2222", ShortID: "bbbbbbbb"},
		{Index: 3, ID: "12345678-3333", ShortID: "12345678"},
	}

	tests := []struct {
		target  string
		wantID  string
		wantErr string
	}{
		{"1", "aaaaaaaa-1111", ""},
		{"2", "bbbbbbbb-2222", ""},
		{"bbbbbbbb", "bbbbbbbb-2222", ""},
		{"aaaaaaaa-1111", "aaaaaaaa-1111", ""},
		{"0", "", "1-based"},
		{"3", "12345678-3333", ""},
		{"12345678", "12345678-3333", ""},
		{"4", "", "invalid session index"},
		{"cccccccc", "", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := ResolveTranscript(transcripts, tt.target)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestFilterByProject(t *testing.T) {
	transcripts := []Transcript{
		{ID: "1", Project: "-home-dev-Alpha", Path: "/p/-home-dev-Alpha/1.jsonl"},
		{ID: "2", Project: "-home-dev-beta", Path: "/p/-home-dev-beta/2.jsonl"},
	}
	assert.Len(t, FilterByProject(transcripts, "alpha"), 1)
	assert.Len(t, FilterByProject(transcripts, ""), 2)
	assert.Empty(t, FilterByProject(transcripts, "gamma"))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.claude/projects")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".claude/projects"), got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestShortIDAndModifiedISO(t *testing.T) {
	assert.Equal(t, "abc", ShortID("abc"))
	assert.Equal(t, "12345678", ShortID("1234567890"))

	tr := Transcript{ModTime: time.Date(2025, 1, 2, 3, 4, 5, 999, time.FixedZone("X", 3600))}
	assert.Equal(t, "2025-01-02T02:04:05Z", tr.ModifiedISO())
}

func TestSummarizeTranscript(t *testing.T) {
	root := testutil.CreateClaudeDir(t, time.Now())
	transcripts, err := DiscoverTranscripts(root, TimeWindow{})
	require.NoError(t, err)

	summary, err := SummarizeTranscript(context.Background(), transcripts[2], true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UserMessages)
	assert.Equal(t, 2, summary.AssistantMessages)
	assert.Equal(t, 3, summary.OtherRecords)
	assert.Equal(t, 1, summary.ParseErrors)
	assert.Equal(t, "How do I fix the rate limit error?", summary.Preview)

	summary, err = SummarizeTranscript(context.Background(), transcripts[2], false)
	require.NoError(t, err)
	assert.Empty(t, summary.Preview)
}

func TestCleanPreview(t *testing.T) {
	assert.Equal(t, "a b c", CleanPreview("  a\nb\t\tc  "))
	long := strings.Repeat("w ", 100)
	assert.Len(t, []rune(CleanPreview(long)), previewLimit)
}
