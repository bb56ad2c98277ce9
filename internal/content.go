package internal

import (
	"bytes"
	"encoding/json"
	"strings"
)

// BlockKind classifies a content block. Source discriminants that are not
// recognized map to BlockUnknown; ContentBlock.Type keeps the original name.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockThinking   BlockKind = "thinking"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
	BlockImage      BlockKind = "image"
	BlockDocument   BlockKind = "document"
	BlockUnknown    BlockKind = "unknown"
)

// ContentBlock is one element of a message's content sequence
type ContentBlock struct {
	Kind      BlockKind       `json:"kind"`
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// IsBinary reports whether the block is a binary payload placeholder
func (b ContentBlock) IsBinary() bool {
	return b.Kind == BlockImage || b.Kind == BlockDocument
}

func blockKindFor(discriminant string) BlockKind {
	switch BlockKind(discriminant) {
	case BlockText, BlockThinking, BlockToolUse, BlockToolResult, BlockImage, BlockDocument:
		return BlockKind(discriminant)
	default:
		return BlockUnknown
	}
}

// decodeContent resolves a message "content" value into blocks. A plain
// string becomes a single text block; an array is decoded element by element.
// Any other JSON value yields ok=false.
func decodeContent(raw json.RawMessage) (blocks []ContentBlock, ok bool) {
	switch firstByte(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		return []ContentBlock{{Kind: BlockText, Type: string(BlockText), Text: s, Raw: raw}}, true
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false
		}
		blocks = make([]ContentBlock, 0, len(items))
		for _, item := range items {
			blocks = append(blocks, decodeBlock(item))
		}
		return blocks, true
	default:
		return nil, false
	}
}

// decodeBlock decodes one content element by its "type" discriminant.
// Fields with unexpected JSON types are left empty; Raw always holds the
// element verbatim.
func decodeBlock(raw json.RawMessage) ContentBlock {
	block := ContentBlock{Kind: BlockUnknown, Raw: raw}

	switch firstByte(raw) {
	case '"':
		// Bare strings inside a content array are treated as text
		var s string
		if json.Unmarshal(raw, &s) == nil {
			block.Kind = BlockText
			block.Type = string(BlockText)
			block.Text = s
		}
		return block
	case '{':
	default:
		return block
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return block
	}

	block.Type, _ = stringField(fields, "type")
	block.Kind = blockKindFor(block.Type)

	switch block.Kind {
	case BlockText:
		block.Text, _ = stringField(fields, "text")
	case BlockThinking:
		block.Text, _ = stringField(fields, "thinking")
	case BlockToolUse:
		block.ToolName, _ = stringField(fields, "name")
		block.ToolUseID, _ = stringField(fields, "id")
		if input, ok := fields["input"]; ok {
			block.ToolInput = input
		}
	case BlockToolResult:
		block.ToolUseID, _ = stringField(fields, "tool_use_id")
		if isErr, ok := boolField(fields, "is_error"); ok {
			block.IsError = &isErr
		}
		if content, ok := fields["content"]; ok {
			block.Text = flattenToolResult(content)
		}
	}

	return block
}

// flattenToolResult renders tool_result content as text: strings verbatim,
// arrays as the newline-joined text of their text elements, anything else as
// compact JSON.
func flattenToolResult(raw json.RawMessage) string {
	switch firstByte(raw) {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	case '[':
		if nested, ok := decodeContent(raw); ok {
			parts := make([]string, 0, len(nested))
			for _, b := range nested {
				if b.Kind == BlockText && b.Text != "" {
					parts = append(parts, b.Text)
				}
			}
			return strings.Join(parts, "\n")
		}
	case 'n', 0:
		return ""
	}
	return compactJSON(raw)
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// stringField extracts a string value; ok is false when the key is missing
// or holds a non-string value.
func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, present := fields[key]
	if !present || firstByte(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// boolField extracts a boolean value; ok is false when the key is missing
// or holds a non-boolean value.
func boolField(fields map[string]json.RawMessage, key string) (bool, bool) {
	raw, present := fields[key]
	if !present {
		return false, false
	}
	if c := firstByte(raw); c != 't' && c != 'f' {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}
