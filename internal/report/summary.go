// Package report renders a human-readable summary of the current page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/session"
)

// Summary collects what the page report shows.
type Summary struct {
	Snapshot session.Snapshot
	Chart    *benchmark.Chart
}

// Markdown builds the report body. Table markup from the service is
// sanitised before it is embedded.
func (s Summary) Markdown() string {
	var b strings.Builder
	snap := s.Snapshot

	if snap.Document == nil {
		b.WriteString("# No document\n\nUpload a PDF to inspect its extraction layers.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "# %s\n\n", escapeText(snap.Document.Filename))
	if snap.Page == nil {
		fmt.Fprintf(&b, "%d pages. No page loaded.\n", snap.Document.PageCount)
		return b.String()
	}
	p := snap.Page
	fmt.Fprintf(&b, "Page **%d** of %d, %.0f x %.0f pt, %d characters.\n\n",
		p.Number, snap.Document.PageCount, p.Width, p.Height, p.CharCount)

	b.WriteString("## Layers\n\n")
	b.WriteString("| Layer | Visible | Records | Time (ms) | Status |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, st := range snap.Layers {
		status := "not fetched"
		switch {
		case st.Error != "":
			status = "failed: " + escapeCell(st.Error)
		case st.Pending:
			status = "loading"
		case st.Fetched || st.Layer == layers.Search && st.Count > 0:
			status = "ok"
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %.2f | %s |\n", st.Layer, yesNo(st.Visible), st.Count, st.TimingMS, status)
	}

	if tables, ok := snap.Entries[layers.Tables]; ok && len(tables.Records) > 0 {
		b.WriteString("\n## Tables\n")
		for i, rec := range tables.Records {
			t, ok := rec.(layers.Table)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "\n### Table %d (%s)\n\n", i+1, t.Label())
			if t.HTML == "" {
				b.WriteString("_No markup._\n")
				continue
			}
			clean, err := SanitizeTable(t.HTML)
			if err != nil {
				log.Printf("report: table %d: %v", i+1, err)
				b.WriteString("_Markup could not be parsed._\n")
				continue
			}
			// A blank line would end the raw HTML block.
			b.WriteString(strings.ReplaceAll(clean, "\n", " "))
			b.WriteString("\n")
		}
	}

	if s.Chart != nil && len(s.Chart.Groups) > 0 {
		b.WriteString("\n## Benchmark\n\n")
		fmt.Fprintf(&b, "| Operation | Library | ms | Relative | %s speedup |\n", s.Chart.Reference)
		b.WriteString("|---|---|---|---|---|\n")
		for _, g := range s.Chart.Groups {
			for _, bar := range g.Bars {
				speedup := ""
				if bar.Speedup > 1 {
					speedup = fmt.Sprintf("%dx", bar.Speedup)
				}
				fmt.Fprintf(&b, "| %s | %s | %.3f | %.0f%% | %s |\n", g.Operation, bar.Library, bar.MS, bar.Percent, speedup)
			}
		}
	}

	if snap.Text.Layout != "" || snap.Text.Simple != "" {
		text := snap.Text.Layout
		if text == "" {
			text = snap.Text.Simple
		}
		fmt.Fprintf(&b, "\n## Text (layout, %.2f ms)\n\n```text\n%s\n```\n", snap.Text.LayoutMS, strings.ReplaceAll(text, "```", "'''"))
	}
	return b.String()
}

type pageData struct {
	Title   string
	Content template.HTML
}

// Renderer converts summaries to standalone HTML pages.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// NewRenderer builds a renderer with GFM tables and code highlighting.
func NewRenderer() (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		// Sanitised table markup is embedded as raw HTML.
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	tmpl, err := template.New("summary").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing summary template: %w", err)
	}
	return &Renderer{md: md, tmpl: tmpl}, nil
}

// Render writes s as an HTML page.
func (r *Renderer) Render(w io.Writer, s Summary) error {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(s.Markdown()), &body); err != nil {
		return fmt.Errorf("converting summary: %w", err)
	}
	title := "ripview"
	if s.Snapshot.Document != nil {
		title = s.Snapshot.Document.Filename + " - ripview"
	}
	return r.tmpl.Execute(w, pageData{Title: title, Content: template.HTML(body.String())})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// escapeText neutralises raw HTML in service or user supplied strings,
// since the renderer passes raw HTML through.
func escapeText(s string) string {
	return template.HTMLEscapeString(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(escapeText(s), "|", `\|`), "\n", " ")
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d1d5db; padding: 4px 8px; text-align: left; }
pre { overflow-x: auto; padding: 1rem; border-radius: 6px; }
</style>
</head>
<body>
{{.Content}}
</body>
</html>
`
