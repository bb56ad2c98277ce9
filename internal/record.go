package internal

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Record types with dedicated handling. The set is open: any other value
// decodes fine and is treated as a non-dialog record.
const (
	RecordUser                = "user"
	RecordAssistant           = "assistant"
	RecordSystem              = "system"
	RecordProgress            = "progress"
	RecordSummary             = "summary"
	RecordQueueOperation      = "queue-operation"
	RecordFileHistorySnapshot = "file-history-snapshot"
)

// RawRecord is the decoded form of one transcript line
type RawRecord struct {
	RecordType string       `json:"type,omitempty"`
	Timestamp  string       `json:"timestamp,omitempty"`
	SessionID  string       `json:"session_id,omitempty"`
	Message    *MessageBody `json:"message,omitempty"`
	// Unrecognized holds every top-level key not captured above, verbatim.
	// Named keys whose value had the wrong JSON type land here too.
	Unrecognized map[string]json.RawMessage `json:"unrecognized,omitempty"`
	Raw          json.RawMessage            `json:"-"`
}

// MessageBody is the "message" object of user and assistant records
type MessageBody struct {
	Role       string                     `json:"role,omitempty"`
	Model      string                     `json:"model,omitempty"`
	Usage      *Usage                     `json:"usage,omitempty"`
	Content    []ContentBlock             `json:"content,omitempty"`
	HasContent bool                       `json:"-"`
	Extra      map[string]json.RawMessage `json:"extra,omitempty"`
}

// Usage holds token accounting reported on assistant messages
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
}

// DecodeRecord decodes one transcript line. Blank lines return ok=false with
// no error. Only syntactically invalid JSON produces an error (*DecodeError);
// missing, extra or mistyped fields never do.
func DecodeRecord(line []byte) (*RawRecord, bool, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, false, nil
	}

	raw := make(json.RawMessage, len(trimmed))
	copy(raw, trimmed)
	rec := &RawRecord{Raw: raw}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Valid JSON that is not an object
			return rec, true, nil
		}
		return nil, false, newDecodeError(err)
	}

	for key, value := range fields {
		captured := false
		switch key {
		case "type":
			rec.RecordType, captured = stringField(fields, key)
		case "timestamp":
			rec.Timestamp, captured = stringField(fields, key)
		case "sessionId":
			rec.SessionID, captured = stringField(fields, key)
		case "message":
			rec.Message, captured = decodeMessage(value)
		}
		if captured {
			continue
		}
		if rec.Unrecognized == nil {
			rec.Unrecognized = make(map[string]json.RawMessage)
		}
		rec.Unrecognized[key] = value
	}

	return rec, true, nil
}

func newDecodeError(err error) *DecodeError {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &DecodeError{Offset: syntaxErr.Offset, Err: err}
	}
	return &DecodeError{Offset: -1, Err: err}
}

// decodeMessage decodes the "message" object; ok is false when the value is
// not an object.
func decodeMessage(raw json.RawMessage) (*MessageBody, bool) {
	if firstByte(raw) != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}

	msg := &MessageBody{}
	for key, value := range fields {
		captured := false
		switch key {
		case "role":
			msg.Role, captured = stringField(fields, key)
		case "model":
			msg.Model, captured = stringField(fields, key)
		case "usage":
			msg.Usage, captured = decodeUsage(value)
		case "content":
			msg.Content, captured = decodeContent(value)
			msg.HasContent = captured
		}
		if captured {
			continue
		}
		if msg.Extra == nil {
			msg.Extra = make(map[string]json.RawMessage)
		}
		msg.Extra[key] = value
	}
	return msg, true
}

func decodeUsage(raw json.RawMessage) (*Usage, bool) {
	if firstByte(raw) != '{' {
		return nil, false
	}
	var usage Usage
	if err := json.Unmarshal(raw, &usage); err != nil {
		return nil, false
	}
	return &usage, true
}
