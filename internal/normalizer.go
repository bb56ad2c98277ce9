package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode selects how much of each record survives normalization
type Mode string

const (
	ModeDefault  Mode = "default"
	ModeDetailed Mode = "detailed"
	ModeRaw      Mode = "raw"
)

// ParseMode converts a mode name to a Mode. An empty name is ModeDefault.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModeDetailed:
		return ModeDetailed, nil
	case ModeRaw:
		return ModeRaw, nil
	default:
		return ModeDefault, fmt.Errorf("unknown mode: %s (supported: default, detailed, raw)", name)
	}
}

// Role is the speaker of a normalized event
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	RoleOther     Role = "other"
)

func parseRole(name string) (Role, bool) {
	switch Role(name) {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return Role(name), true
	default:
		return "", false
	}
}

// NormalizedEvent is the unit consumed by search, export and display. It is
// derived from exactly one RawRecord and never mutated afterwards.
type NormalizedEvent struct {
	Role             Role                       `json:"role" yaml:"role"`
	Content          []ContentBlock             `json:"content" yaml:"content"`
	Timestamp        string                     `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	SourceRecordType string                     `json:"source_record_type" yaml:"source_record_type"`
	SessionID        string                     `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Metadata         map[string]json.RawMessage `json:"metadata,omitempty" yaml:"-"`
}

// Text joins the text of every text block
func (e NormalizedEvent) Text() string {
	parts := make([]string, 0, len(e.Content))
	for _, b := range e.Content {
		if b.Kind == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Model returns the assistant model recorded in metadata, if any
func (e NormalizedEvent) Model() string {
	raw, ok := e.Metadata["model"]
	if !ok {
		return ""
	}
	var model string
	if json.Unmarshal(raw, &model) != nil {
		return ""
	}
	return model
}

// Usage returns the token usage recorded in metadata, if any
func (e NormalizedEvent) Usage() *Usage {
	raw, ok := e.Metadata["usage"]
	if !ok {
		return nil
	}
	var u Usage
	if json.Unmarshal(raw, &u) != nil {
		return nil
	}
	return &u
}

// DefaultSummaryAllowList names the non-dialog records surfaced in detailed
// mode. Entries are either a record type or "type:subtype".
var DefaultSummaryAllowList = []string{
	"system:compact_boundary",
	"system:api_error",
	"system:local_command",
	"progress:hook_progress",
	"summary",
}

const (
	summaryCommandLimit = 120
	summaryJSONLimit    = 300
)

// Normalizer maps raw records to normalized events. It holds only the
// read-only summary allow-list and is safe for concurrent use.
type Normalizer struct {
	allow map[string]struct{}
}

// NewNormalizer creates a Normalizer with the given summary allow-list.
// A nil list selects DefaultSummaryAllowList; an empty list disables
// summaries in detailed mode.
func NewNormalizer(allow []string) *Normalizer {
	if allow == nil {
		allow = DefaultSummaryAllowList
	}
	set := make(map[string]struct{}, len(allow))
	for _, entry := range allow {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			set[entry] = struct{}{}
		}
	}
	return &Normalizer{allow: set}
}

// Normalize converts one record into zero or one events. It never fails;
// every zero-event outcome is counted in stats with its reason.
func (n *Normalizer) Normalize(rec *RawRecord, mode Mode, stats *RunStats) []NormalizedEvent {
	if rec == nil {
		stats.skip(SkipNilRecord)
		return nil
	}

	var events []NormalizedEvent
	switch rec.RecordType {
	case RecordUser, RecordAssistant:
		events = n.normalizeDialog(rec, mode, stats)
	default:
		events = n.normalizeOther(rec, mode, stats)
	}
	stats.addEvents(len(events))
	return events
}

func (n *Normalizer) normalizeDialog(rec *RawRecord, mode Mode, stats *RunStats) []NormalizedEvent {
	if mode == ModeRaw && (rec.Message == nil || len(rec.Message.Content) == 0) {
		return n.normalizeOther(rec, mode, stats)
	}
	if rec.Message == nil {
		stats.skip(SkipNoMessage)
		return nil
	}
	if len(rec.Message.Content) == 0 {
		stats.skip(SkipEmptyContent)
		return nil
	}

	blocks := filterBlocks(rec.Message.Content, mode)
	if len(blocks) == 0 {
		stats.skip(SkipFilteredContent)
		return nil
	}

	return []NormalizedEvent{newEvent(rec, blocks)}
}

func (n *Normalizer) normalizeOther(rec *RawRecord, mode Mode, stats *RunStats) []NormalizedEvent {
	switch mode {
	case ModeRaw:
	case ModeDetailed:
		if !n.allowed(rec) {
			stats.skip(SkipNotAllowListed)
			return nil
		}
	default:
		stats.skip(SkipNonDialog)
		return nil
	}

	block := ContentBlock{
		Kind: BlockText,
		Type: string(BlockText),
		Text: summarizeRecord(rec),
		Raw:  rec.Raw,
	}
	return []NormalizedEvent{newEvent(rec, []ContentBlock{block})}
}

func (n *Normalizer) allowed(rec *RawRecord) bool {
	if rec.RecordType == "" {
		return false
	}
	if _, ok := n.allow[rec.RecordType]; ok {
		return true
	}
	subtype := recordSubtype(rec)
	if subtype == "" {
		return false
	}
	_, ok := n.allow[rec.RecordType+":"+subtype]
	return ok
}

// filterBlocks returns a fresh slice holding the blocks the mode keeps
func filterBlocks(blocks []ContentBlock, mode Mode) []ContentBlock {
	kept := make([]ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		if keepBlock(b, mode) {
			kept = append(kept, b)
		}
	}
	return kept
}

func keepBlock(b ContentBlock, mode Mode) bool {
	switch mode {
	case ModeRaw:
		return true
	case ModeDetailed:
		switch b.Kind {
		case BlockText:
			return strings.TrimSpace(b.Text) != ""
		case BlockThinking, BlockToolUse, BlockToolResult:
			return true
		}
		return false
	default:
		return b.Kind == BlockText && strings.TrimSpace(b.Text) != ""
	}
}

func newEvent(rec *RawRecord, blocks []ContentBlock) NormalizedEvent {
	return NormalizedEvent{
		Role:             roleFor(rec),
		Content:          blocks,
		Timestamp:        rec.Timestamp,
		SourceRecordType: rec.RecordType,
		SessionID:        rec.SessionID,
		Metadata:         eventMetadata(rec),
	}
}

// roleFor prefers message.role, then the record type. Only a record with
// neither signal is RoleOther.
func roleFor(rec *RawRecord) Role {
	if rec.Message != nil {
		if role, ok := parseRole(rec.Message.Role); ok {
			return role
		}
	}
	switch rec.RecordType {
	case RecordUser:
		return RoleUser
	case RecordAssistant:
		return RoleAssistant
	case RecordProgress:
		return RoleTool
	case "":
		return RoleOther
	default:
		return RoleSystem
	}
}

func eventMetadata(rec *RawRecord) map[string]json.RawMessage {
	size := len(rec.Unrecognized)
	if rec.Message != nil {
		size += len(rec.Message.Extra) + 2
	}
	if size == 0 {
		return nil
	}

	meta := make(map[string]json.RawMessage, size)
	for k, v := range rec.Unrecognized {
		meta[k] = v
	}
	if msg := rec.Message; msg != nil {
		if msg.Model != "" {
			if raw, err := json.Marshal(msg.Model); err == nil {
				meta["model"] = raw
			}
		}
		if msg.Usage != nil {
			if raw, err := json.Marshal(msg.Usage); err == nil {
				meta["usage"] = raw
			}
		}
		for k, v := range msg.Extra {
			meta["message."+k] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// recordSubtype returns the field that refines a non-dialog record type
func recordSubtype(rec *RawRecord) string {
	switch rec.RecordType {
	case RecordSystem:
		s, _ := stringField(rec.Unrecognized, "subtype")
		return s
	case RecordProgress:
		s, _ := stringField(objectField(rec.Unrecognized, "data"), "type")
		return s
	case RecordQueueOperation:
		s, _ := stringField(rec.Unrecognized, "operation")
		return s
	}
	return ""
}

// summarizeRecord renders a one-line description of a non-dialog record
func summarizeRecord(rec *RawRecord) string {
	subtype := recordSubtype(rec)
	if subtype == "" {
		subtype = "unknown"
	}

	switch rec.RecordType {
	case RecordProgress:
		data := objectField(rec.Unrecognized, "data")
		var sb strings.Builder
		sb.WriteString("progress:" + subtype)
		if hook, _ := stringField(data, "hookName"); hook != "" {
			sb.WriteString(" hook=" + hook)
		}
		if cmd, _ := stringField(data, "command"); cmd != "" {
			sb.WriteString(" cmd=" + Ellipsize(cmd, summaryCommandLimit))
		}
		return sb.String()
	case RecordSystem:
		s := "system:" + subtype
		if content, _ := stringField(rec.Unrecognized, "content"); strings.TrimSpace(content) != "" {
			s += " " + Ellipsize(flattenWhitespace(content), summaryJSONLimit)
		}
		return s
	case RecordQueueOperation:
		return "queue-operation:" + subtype
	case RecordFileHistorySnapshot:
		return RecordFileHistorySnapshot
	case RecordSummary:
		if summary, _ := stringField(rec.Unrecognized, "summary"); summary != "" {
			return "summary: " + summary
		}
		return RecordSummary
	}
	return Ellipsize(compactJSON(rec.Raw), summaryJSONLimit)
}

func objectField(fields map[string]json.RawMessage, key string) map[string]json.RawMessage {
	raw, ok := fields[key]
	if !ok || firstByte(raw) != '{' {
		return nil
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	return obj
}

// Ellipsize shortens s to at most max runes, marking the cut with "..."
func Ellipsize(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - 3
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + "..."
}

func flattenWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
