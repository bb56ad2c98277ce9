package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/cc-convo/internal"
)

// Exporter defines the interface for all export formats. Export receives one
// document for a per-session file and several for a bundle.
type Exporter interface {
	Export(docs []internal.ExportDocument, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "html":
		return &HTMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, json, jsonl, yaml, html)", format)
	}
}
