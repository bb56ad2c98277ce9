package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/cc-convo/internal"
)

// MarkdownExporter exports documents in Markdown format
type MarkdownExporter struct{}

// Export exports documents to Markdown format
func (e *MarkdownExporter) Export(docs []internal.ExportDocument, w io.Writer) error {
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString("# cc-convo export\n\n")
		fmt.Fprintf(&b, "- Session: `%s`\n", doc.SessionID)
		fmt.Fprintf(&b, "- Project: `%s`\n", doc.Project)
		fmt.Fprintf(&b, "- Modified: `%s`\n", doc.ModifiedISO)
		fmt.Fprintf(&b, "- Source: `%s`\n", doc.SourcePath)
		fmt.Fprintf(&b, "- Events: `%d`\n\n", doc.EventCount)

		for _, ev := range doc.Events {
			fmt.Fprintf(&b, "## [%s] %s\n\n", ev.Role, timestampOrDash(ev.Timestamp))
			b.WriteString(escapeMarkdown(ev.Content))
			b.WriteString("\n\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCodeBlock := false

	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		line = strings.ReplaceAll(line, "__", "\\_\\_")
		lines[i] = line
	}

	return strings.Join(lines, "\n")
}

func timestampOrDash(ts string) string {
	if ts == "" {
		return "-"
	}
	return ts
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
