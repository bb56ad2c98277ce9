package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/cc-convo/internal"
)

// SessionFileName returns cc-convo-<date>-<short>.<ext>, dated by the
// session's modification day.
func SessionFileName(doc internal.ExportDocument, ext string) string {
	date, _, _ := strings.Cut(doc.ModifiedISO, "T")
	if date == "" {
		date = "unknown-date"
	}
	return fmt.Sprintf("cc-convo-%s-%s.%s", date, doc.SessionShort, ext)
}

// BundleFileName returns cc-convo-bundle-<date>.<ext> for the UTC day of now
func BundleFileName(now time.Time, ext string) string {
	return fmt.Sprintf("cc-convo-bundle-%s.%s", now.UTC().Format(time.DateOnly), ext)
}

// WriteSessionFile writes one document to its own file in dir
func WriteSessionFile(dir string, doc internal.ExportDocument, exp Exporter) (string, error) {
	path := filepath.Join(dir, SessionFileName(doc, exp.Extension()))
	return path, writeFile(path, []internal.ExportDocument{doc}, exp)
}

// WriteBundleFile writes every document to a single file in dir
func WriteBundleFile(dir string, docs []internal.ExportDocument, exp Exporter, now time.Time) (string, error) {
	path := filepath.Join(dir, BundleFileName(now, exp.Extension()))
	return path, writeFile(path, docs, exp)
}

func writeFile(path string, docs []internal.ExportDocument, exp Exporter) error {
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exp.Extension(), Path: path, Err: err}
	}

	w := bufio.NewWriter(f)
	if err := exp.Export(docs, w); err != nil {
		_ = f.Close()
		return &internal.ExportError{Format: exp.Extension(), Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return &internal.ExportError{Format: exp.Extension(), Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &internal.ExportError{Format: exp.Extension(), Path: path, Err: err}
	}
	return nil
}
