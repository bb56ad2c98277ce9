package internal

import (
	"encoding/json"
	"time"
)

// CreateTestEvent creates a text event with the given role
func CreateTestEvent(role Role, text, timestamp string) NormalizedEvent {
	recordType := RecordUser
	if role == RoleAssistant {
		recordType = RecordAssistant
	}
	return NormalizedEvent{
		Role:             role,
		Timestamp:        timestamp,
		SourceRecordType: recordType,
		Content:          []ContentBlock{{Kind: BlockText, Type: "text", Text: text}},
	}
}

// CreateTestTranscript creates a transcript description without a backing file
func CreateTestTranscript(id string) Transcript {
	return Transcript{
		Index:   1,
		ID:      id,
		ShortID: ShortID(id),
		Project: "-home-dev-test",
		Path:    "/tmp/" + id + ".jsonl",
		ModTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Size:    1024,
	}
}

// CreateTestExportDocument creates a two-event export document
func CreateTestExportDocument(id string) ExportDocument {
	assistant := CreateTestEvent(RoleAssistant, "I'm doing well, thank you!", "2025-06-01T11:00:05Z")
	assistant.Metadata = map[string]json.RawMessage{"model": json.RawMessage(`"claude-sonnet-4"`)}
	return BuildExportDocument(CreateTestTranscript(id), []NormalizedEvent{
		CreateTestEvent(RoleUser, "Hello, how are you?", "2025-06-01T11:00:00Z"),
		assistant,
	})
}
