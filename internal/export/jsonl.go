package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/cc-convo/internal"
)

// JSONLExporter exports one event per line, each tagged with its session
type JSONLExporter struct{}

type jsonlLine struct {
	SessionID string `json:"session_id"`
	Project   string `json:"project,omitempty"`
	Position  int    `json:"position"`
	internal.ExportEvent
}

// Export exports documents to JSONL format
func (e *JSONLExporter) Export(docs []internal.ExportDocument, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, doc := range docs {
		for i, ev := range doc.Events {
			line := jsonlLine{
				SessionID:   doc.SessionID,
				Project:     doc.Project,
				Position:    i,
				ExportEvent: ev,
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("failed to encode event %d of %s: %w", i, doc.SessionShort, err)
			}
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
