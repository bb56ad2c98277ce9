package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// UserRecord returns a user transcript line with plain string content
func UserRecord(t *testing.T, sessionID, timestamp, text string) string {
	t.Helper()
	return JSONLine(t, map[string]interface{}{
		"type":      "user",
		"sessionId": sessionID,
		"timestamp": timestamp,
		"uuid":      sessionID + "-" + timestamp,
		"message": map[string]interface{}{
			"role":    "user",
			"content": text,
		},
	})
}

// AssistantRecord returns an assistant transcript line with one text block
// and token usage.
func AssistantRecord(t *testing.T, sessionID, timestamp, model, text string) string {
	t.Helper()
	return JSONLine(t, map[string]interface{}{
		"type":      "assistant",
		"sessionId": sessionID,
		"timestamp": timestamp,
		"message": map[string]interface{}{
			"role":  "assistant",
			"model": model,
			"content": []interface{}{
				map[string]interface{}{"type": "text", "text": text},
			},
			"usage": map[string]interface{}{
				"input_tokens":  12,
				"output_tokens": 34,
			},
		},
	})
}

// ToolUseRecord returns an assistant line carrying a thinking block and a
// tool call.
func ToolUseRecord(t *testing.T, sessionID, timestamp, tool, command string) string {
	t.Helper()
	return JSONLine(t, map[string]interface{}{
		"type":      "assistant",
		"sessionId": sessionID,
		"timestamp": timestamp,
		"message": map[string]interface{}{
			"role": "assistant",
			"content": []interface{}{
				map[string]interface{}{"type": "thinking", "thinking": "deciding what to run"},
				map[string]interface{}{
					"type":  "tool_use",
					"id":    "toolu_1",
					"name":  tool,
					"input": map[string]interface{}{"command": command},
				},
			},
		},
	})
}

// ProgressRecord returns a progress line with the given data.type
func ProgressRecord(t *testing.T, sessionID, timestamp, progressType, hook string) string {
	t.Helper()
	return JSONLine(t, map[string]interface{}{
		"type":      "progress",
		"sessionId": sessionID,
		"timestamp": timestamp,
		"data": map[string]interface{}{
			"type":     progressType,
			"hookName": hook,
		},
	})
}

// SystemRecord returns a system line with the given subtype and content
func SystemRecord(t *testing.T, sessionID, timestamp, subtype, content string) string {
	t.Helper()
	return JSONLine(t, map[string]interface{}{
		"type":      "system",
		"sessionId": sessionID,
		"timestamp": timestamp,
		"subtype":   subtype,
		"content":   content,
	})
}

// SampleTranscript returns a small session mixing dialog, tool and
// non-dialog records plus one malformed line.
func SampleTranscript(t *testing.T, sessionID string) []string {
	t.Helper()
	return []string{
		UserRecord(t, sessionID, "2025-06-01T10:00:00Z", "How do I fix the rate limit error?"),
		ToolUseRecord(t, sessionID, "2025-06-01T10:00:05Z", "Bash", "grep -r RateLimit ."),
		ProgressRecord(t, sessionID, "2025-06-01T10:00:06Z", "hook_progress", "PreToolUse"),
		`{"type":"assistant","message":{"content":`,
		AssistantRecord(t, sessionID, "2025-06-01T10:00:10Z", "claude-sonnet-4", "Add a retry with backoff around the rate limit."),
		SystemRecord(t, sessionID, "2025-06-01T10:00:11Z", "turn_duration", ""),
		`{"type":"file-history-snapshot","snapshot":{"files":[]}}`,
	}
}

// WriteTranscript writes lines as <root>/<project>/<sessionID>.jsonl and
// sets its modification time. It returns the file path.
func WriteTranscript(t *testing.T, root, project, sessionID string, mod time.Time, lines []string) string {
	t.Helper()
	dir := filepath.Join(root, project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create project directory: %v", err)
	}
	path := filepath.Join(dir, sessionID+".jsonl")
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write transcript %s: %v", path, err)
	}
	if !mod.IsZero() {
		SetModTime(t, path, mod)
	}
	return path
}

// CreateClaudeDir builds a transcript root with two projects and three
// sessions, the newest first: s3 (1h ago), s2 (2d ago), s1 (10d ago).
func CreateClaudeDir(t *testing.T, now time.Time) string {
	t.Helper()
	root := t.TempDir()
	WriteTranscript(t, root, "-home-dev-alpha", "11111111-aaaa-4000-8000-000000000001",
		now.Add(-10*24*time.Hour), SampleTranscript(t, "11111111-aaaa-4000-8000-000000000001"))
	WriteTranscript(t, root, "-home-dev-alpha", "22222222-bbbb-4000-8000-000000000002",
		now.Add(-48*time.Hour), []string{
			UserRecord(t, "22222222-bbbb-4000-8000-000000000002", "2025-06-02T09:00:00Z", "Write a haiku about tool use errors"),
			AssistantRecord(t, "22222222-bbbb-4000-8000-000000000002", "2025-06-02T09:00:03Z", "claude-opus-4", "Tool use error occurred / retry the call again"),
		})
	WriteTranscript(t, root, "-home-dev-beta", "33333333-cccc-4000-8000-000000000003",
		now.Add(-time.Hour), []string{
			UserRecord(t, "33333333-cccc-4000-8000-000000000003", "2025-06-03T08:00:00Z", "the tool was used twice"),
		})
	return root
}
