package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/cc-convo/internal"
)

// JSONExporter exports documents as pretty-printed JSON. A single document is
// written as an object, several as an array.
type JSONExporter struct{}

// Export exports documents to JSON format
func (e *JSONExporter) Export(docs []internal.ExportDocument, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(docs) == 1 {
		return enc.Encode(docs[0])
	}
	if docs == nil {
		docs = []internal.ExportDocument{}
	}
	return enc.Encode(docs)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
