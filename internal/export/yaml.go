package export

import (
	"io"

	"github.com/iksnae/cc-convo/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports each document as its own YAML document in one stream
type YAMLExporter struct{}

// Export exports documents to YAML format
func (e *YAMLExporter) Export(docs []internal.ExportDocument, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
