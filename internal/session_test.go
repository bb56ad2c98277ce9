package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEventText(t *testing.T) {
	isErr := true
	tests := []struct {
		name  string
		block ContentBlock
		want  string
	}{
		{"text", ContentBlock{Kind: BlockText, Type: "text", Text: "hi"}, "hi"},
		{"thinking", ContentBlock{Kind: BlockThinking, Type: "thinking", Text: "hmm"}, "[thinking]\nhmm"},
		{
			"tool use",
			ContentBlock{Kind: BlockToolUse, Type: "tool_use", ToolName: "Bash", ToolInput: json.RawMessage(`{"command":"ls"}`)},
			"[tool_use] Bash\n{\n  \"command\": \"ls\"\n}",
		},
		{"tool use without input", ContentBlock{Kind: BlockToolUse, Type: "tool_use"}, "[tool_use] unknown\n{}"},
		{
			"tool result error",
			ContentBlock{Kind: BlockToolResult, Type: "tool_result", ToolUseID: "t1", Text: "boom", IsError: &isErr},
			"[tool_result] t1 (error)\nboom",
		},
		{"image", ContentBlock{Kind: BlockImage, Type: "image"}, "[image omitted]"},
		{"unknown", ContentBlock{Kind: BlockUnknown, Type: "server_tool_use"}, "[server_tool_use]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderEventText(NormalizedEvent{Content: []ContentBlock{tt.block}})
			assert.Equal(t, tt.want, got)
		})
	}

	joined := RenderEventText(NormalizedEvent{Content: []ContentBlock{
		{Kind: BlockText, Text: "a"},
		{Kind: BlockText, Text: ""},
		{Kind: BlockText, Text: "b"},
	}})
	assert.Equal(t, "a\nb", joined)
}

func TestBuildExportDocument(t *testing.T) {
	tr := Transcript{
		ID:      "abcdef12-0000",
		ShortID: "abcdef12",
		Project: "-home-dev-alpha",
		Path:    "/x/abcdef12-0000.jsonl",
		ModTime: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}
	events := []NormalizedEvent{
		{
			Role:             RoleAssistant,
			Timestamp:        "2025-03-04T05:00:00Z",
			SourceRecordType: RecordAssistant,
			Content:          []ContentBlock{{Kind: BlockText, Text: "done"}},
			Metadata:         map[string]json.RawMessage{"model": json.RawMessage(`"claude-opus-4"`)},
		},
	}

	doc := BuildExportDocument(tr, events)
	assert.Equal(t, "abcdef12-0000", doc.SessionID)
	assert.Equal(t, "abcdef12", doc.SessionShort)
	assert.Equal(t, "2025-03-04T05:06:07Z", doc.ModifiedISO)
	assert.Equal(t, 1, doc.EventCount)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, "done", doc.Events[0].Content)
	assert.Equal(t, "claude-opus-4", doc.Events[0].Model)
	assert.Equal(t, RoleAssistant, doc.Events[0].Role)

	empty := BuildExportDocument(tr, nil)
	assert.NotNil(t, empty.Events)
	assert.Zero(t, empty.EventCount)
}
