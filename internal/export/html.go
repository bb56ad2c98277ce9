package export

import (
	"html/template"
	"io"

	"github.com/iksnae/cc-convo/internal"
)

var htmlPage = template.Must(template.New("page").Funcs(template.FuncMap{
	"ts": timestampOrDash,
}).Parse(`<!doctype html><html><head><meta charset="utf-8"><title>cc-convo export</title>
<style>body{font-family:ui-sans-serif,system-ui;margin:2rem;background:#f7f8fa;color:#1e2430} .card{background:#fff;border-radius:12px;padding:16px 20px;margin:0 0 16px 0;box-shadow:0 1px 2px rgba(0,0,0,.06)} .meta{color:#5c667a;font-size:.92rem} .user{border-left:4px solid #3b82f6} .assistant{border-left:4px solid #10b981} pre{white-space:pre-wrap;word-break:break-word;margin:0} h1,h2{margin:.2rem 0 .8rem}</style>
</head><body><h1>cc-convo export</h1>
{{range .}}<div class="card"><h2>{{.SessionID}}</h2><div class="meta">project={{.Project}} modified={{.ModifiedISO}} source={{.SourcePath}} events={{.EventCount}}</div></div>
{{range .Events}}<div class="card {{.Role}}"><h2>[{{.Role}}] {{ts .Timestamp}}</h2>{{if .Model}}<div class="meta">{{.Model}}</div>{{end}}<pre>{{.Content}}</pre></div>
{{end}}{{end}}</body></html>
`))

// HTMLExporter exports documents as a standalone HTML page
type HTMLExporter struct{}

// Export exports documents to HTML format
func (e *HTMLExporter) Export(docs []internal.ExportDocument, w io.Writer) error {
	return htmlPage.Execute(w, docs)
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
