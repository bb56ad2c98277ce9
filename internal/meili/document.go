package meili

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/cc-convo/internal"
)

// eventNamespace scopes document ids so the same event always maps to the
// same id and re-indexing replaces rather than duplicates.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/iksnae/cc-convo/events"))

// Document is the MeiliSearch-ready representation of a normalized event
type Document struct {
	ID               string `json:"id"`
	SessionID        string `json:"session_id"`
	SessionShort     string `json:"session_short"`
	Project          string `json:"project"`
	Position         int    `json:"position"`
	Role             string `json:"role"`
	SourceRecordType string `json:"source_record_type"`
	Timestamp        string `json:"timestamp,omitempty"`
	TimestampUnix    int64  `json:"timestamp_unix"`
	Model            string `json:"model,omitempty"`
	InputTokens      int64  `json:"input_tokens,omitempty"`
	OutputTokens     int64  `json:"output_tokens,omitempty"`
	Content          string `json:"content"`
}

// DocumentID returns the deterministic id of the event at position in session
func DocumentID(sessionID string, position int) string {
	return uuid.NewSHA1(eventNamespace, []byte(sessionID+"#"+strconv.Itoa(position))).String()
}

// EventToDocument flattens one event into a document
func EventToDocument(t internal.Transcript, position int, ev internal.NormalizedEvent) Document {
	doc := Document{
		ID:               DocumentID(t.ID, position),
		SessionID:        t.ID,
		SessionShort:     t.ShortID,
		Project:          t.Project,
		Position:         position,
		Role:             string(ev.Role),
		SourceRecordType: ev.SourceRecordType,
		Timestamp:        ev.Timestamp,
		Model:            ev.Model(),
		Content:          internal.RenderEventText(ev),
	}
	if ts, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err == nil {
		doc.TimestampUnix = ts.Unix()
	}
	if usage := ev.Usage(); usage != nil {
		doc.InputTokens = usage.InputTokens
		doc.OutputTokens = usage.OutputTokens
	}
	return doc
}

// TranscriptDocuments converts every event of a loaded transcript
func TranscriptDocuments(lt *internal.LoadedTranscript) []Document {
	docs := make([]Document, 0, len(lt.Events))
	for pos, ev := range lt.Events {
		docs = append(docs, EventToDocument(lt.Transcript, pos, ev))
	}
	return docs
}
