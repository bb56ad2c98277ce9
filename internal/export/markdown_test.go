package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/cc-convo/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		docs    []internal.ExportDocument
		want    []string
		notWant []string
	}{
		{
			name: "single document",
			docs: []internal.ExportDocument{internal.CreateTestExportDocument("test1-session")},
			want: []string{
				"# cc-convo export",
				"- Session: `test1-session`",
				"- Project: `-home-dev-test`",
				"- Modified: `2025-06-01T12:00:00Z`",
				"- Events: `2`",
				"## [user] 2025-06-01T11:00:00Z",
				"Hello, how are you?",
				"## [assistant] 2025-06-01T11:00:05Z",
			},
			notWant: []string{"---"},
		},
		{
			name: "bundle separates documents",
			docs: []internal.ExportDocument{
				internal.CreateTestExportDocument("first"),
				internal.CreateTestExportDocument("second"),
			},
			want: []string{"- Session: `first`", "\n\n---\n\n# cc-convo export", "- Session: `second`"},
		},
		{
			name: "missing timestamp",
			docs: []internal.ExportDocument{
				internal.BuildExportDocument(internal.CreateTestTranscript("nots"), []internal.NormalizedEvent{
					internal.CreateTestEvent(internal.RoleUser, "**hi**", ""),
				}),
			},
			want:    []string{"## [user] -", "\\*\\*hi\\*\\*"},
			notWant: []string{"**hi**"},
		},
		{
			name: "empty document",
			docs: []internal.ExportDocument{internal.BuildExportDocument(internal.CreateTestTranscript("empty"), nil)},
			want: []string{"- Events: `0`"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.docs, &buf); err != nil {
				t.Fatalf("MarkdownExporter.Export() error = %v", err)
			}

			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(output, notWantStr) {
					t.Errorf("Output should not contain %q, got:\n%s", notWantStr, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:   "This is **bold** text",
			want:    []string{"\\*\\*bold\\*\\*"},
			notWant: []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:   "This is __underlined__ text",
			want:    []string{"\\_\\_underlined\\_\\_"},
			notWant: []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\nx := **p\n```",
			want:  []string{"```go", "x := **p", "```"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}
