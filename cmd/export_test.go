package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runExportJSON(t *testing.T, args ...string) exportSummary {
	t.Helper()
	stdout, _, err := executeCommand(t, "", append([]string{"export", "--json"}, args...)...)
	require.NoError(t, err)
	var summary exportSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	return summary
}

func TestExportCommand_Errors(t *testing.T) {
	setupTestEnv(t)
	out := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no selection",
			args:    []string{"export", "-o", out},
			wantErr: "no selection flags",
		},
		{
			name:    "invalid format",
			args:    []string{"export", "--recent", "1", "--format", "invalid", "-o", out},
			wantErr: "unsupported format",
		},
		{
			name:    "zero index",
			args:    []string{"export", "--index", "0", "-o", out},
			wantErr: "1-based",
		},
		{
			name:    "index out of range",
			args:    []string{"export", "--index", "9", "-o", out},
			wantErr: "out of range",
		},
		{
			name:    "unknown session",
			args:    []string{"export", "--session", "nope", "-o", out},
			wantErr: "session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExportCommand_PerSessionFiles(t *testing.T) {
	setupTestEnv(t)
	out := filepath.Join(t.TempDir(), "exports")

	summary := runExportJSON(t, "--recent", "2", "--format", "json", "-o", out)
	assert.Equal(t, 2, summary.ExportedSessions)
	assert.Equal(t, "json", summary.Format)
	assert.False(t, summary.SingleFile)
	require.Len(t, summary.OutputFiles, 2)
	assert.Contains(t, filepath.Base(summary.OutputFiles[0]), "-33333333.json")
	assert.Contains(t, filepath.Base(summary.OutputFiles[1]), "-22222222.json")

	data, err := os.ReadFile(summary.OutputFiles[0])
	require.NoError(t, err)
	var doc struct {
		SessionID  string `json:"session_id"`
		EventCount int    `json:"event_count"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "33333333-cccc-4000-8000-000000000003", doc.SessionID)
	assert.Equal(t, 1, doc.EventCount)
}

func TestExportCommand_SelectionUnion(t *testing.T) {
	setupTestEnv(t)
	out := t.TempDir()

	summary := runExportJSON(t, "--session", "33333333", "--index", "1", "--index", "3", "-o", out)
	assert.Equal(t, 2, summary.ExportedSessions, "duplicates are dropped")
	require.Len(t, summary.OutputFiles, 2)
	assert.True(t, strings.HasSuffix(summary.OutputFiles[0], "-33333333.md"))
	assert.True(t, strings.HasSuffix(summary.OutputFiles[1], "-11111111.md"))
	assert.Equal(t, 1, summary.ParseErrors)

	summary = runExportJSON(t, "--search", "haiku", "-o", out)
	require.Equal(t, 1, summary.ExportedSessions)
	assert.True(t, strings.HasSuffix(summary.OutputFiles[0], "-22222222.md"))
}

func TestExportCommand_SingleFileDetailed(t *testing.T) {
	setupTestEnv(t)
	out := t.TempDir()

	summary := runExportJSON(t, "--all", "--single-file", "--detailed", "--format", "md", "-o", out)
	assert.Equal(t, 3, summary.ExportedSessions)
	assert.True(t, summary.SingleFile)
	assert.True(t, summary.Detailed)
	require.Len(t, summary.OutputFiles, 1)
	assert.True(t, strings.HasPrefix(filepath.Base(summary.OutputFiles[0]), "cc-convo-bundle-"))

	data, err := os.ReadFile(summary.OutputFiles[0])
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "grep -r RateLimit .")
	assert.Equal(t, 2, strings.Count(content, "\n---\n"))
}

func TestExportCommand_AllConfirmation(t *testing.T) {
	setupTestEnv(t)
	out := filepath.Join(t.TempDir(), "exports")

	stdout, _, err := executeCommand(t, "n\n", "export", "--all", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Export 3 session(s)")
	assert.Contains(t, stdout, "Aborted.")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	stdout, _, err = executeCommand(t, "yes\n", "export", "--all", "--format", "html", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 3 session(s) to 3 file(s).")
	files, err := filepath.Glob(filepath.Join(out, "*.html"))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}
