package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const toolResultLimit = 1200

// ExportDocument is one session prepared for export
type ExportDocument struct {
	SessionID    string        `json:"session_id" yaml:"session_id"`
	SessionShort string        `json:"session_short" yaml:"session_short"`
	Project      string        `json:"project" yaml:"project"`
	SourcePath   string        `json:"source_path" yaml:"source_path"`
	ModifiedISO  string        `json:"modified_iso" yaml:"modified_iso"`
	EventCount   int           `json:"event_count" yaml:"event_count"`
	Events       []ExportEvent `json:"events" yaml:"events"`
}

// ExportEvent is the flattened, display-ready form of a NormalizedEvent
type ExportEvent struct {
	Role             Role   `json:"role" yaml:"role"`
	Timestamp        string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	SourceRecordType string `json:"source_record_type" yaml:"source_record_type"`
	Model            string `json:"model,omitempty" yaml:"model,omitempty"`
	Content          string `json:"content" yaml:"content"`
}

// BuildExportDocument renders the events of t for export
func BuildExportDocument(t Transcript, events []NormalizedEvent) ExportDocument {
	out := make([]ExportEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, ExportEvent{
			Role:             ev.Role,
			Timestamp:        ev.Timestamp,
			SourceRecordType: ev.SourceRecordType,
			Model:            ev.Model(),
			Content:          RenderEventText(ev),
		})
	}
	return ExportDocument{
		SessionID:    t.ID,
		SessionShort: t.ShortID,
		Project:      t.Project,
		SourcePath:   t.Path,
		ModifiedISO:  t.ModifiedISO(),
		EventCount:   len(out),
		Events:       out,
	}
}

// RenderEventText renders every block of an event as plain text. Text blocks
// are emitted as-is; other kinds get a bracketed header.
func RenderEventText(ev NormalizedEvent) string {
	parts := make([]string, 0, len(ev.Content))
	for _, b := range ev.Content {
		if s := renderBlock(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func renderBlock(b ContentBlock) string {
	switch b.Kind {
	case BlockText:
		return b.Text
	case BlockThinking:
		return "[thinking]\n" + b.Text
	case BlockToolUse:
		name := b.ToolName
		if name == "" {
			name = "unknown"
		}
		return fmt.Sprintf("[tool_use] %s\n%s", name, prettyJSON(b.ToolInput))
	case BlockToolResult:
		id := b.ToolUseID
		if id == "" {
			id = "unknown"
		}
		header := "[tool_result] " + id
		if b.IsError != nil && *b.IsError {
			header += " (error)"
		}
		return header + "\n" + Ellipsize(b.Text, toolResultLimit)
	case BlockImage, BlockDocument:
		return fmt.Sprintf("[%s omitted]", b.Kind)
	default:
		return fmt.Sprintf("[%s]", b.Type)
	}
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
