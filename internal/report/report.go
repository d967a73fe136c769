// Package report renders tracking data acquisition reports. Builder
// collects the sections and tables the coordinator contributes and writes
// them as a standalone HTML page; the plot sinks render per-tool series as
// chart artifacts referenced from the page.
package report

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"
)

type section struct {
	title string
	body  string // pre-escaped HTML
}

// Builder accumulates report content. It implements the coordinator's
// ReportSink contract and is purely additive.
type Builder struct {
	title    string
	sections []section
}

// NewBuilder creates a report with the given page title.
func NewBuilder(title string) *Builder {
	return &Builder{title: title}
}

// AddSection appends a titled paragraph of plain text.
func (b *Builder) AddSection(title, body string) {
	b.sections = append(b.sections, section{
		title: title,
		body:  "<p>" + html.EscapeString(body) + "</p>",
	})
}

// AddTable appends a titled table.
func (b *Builder) AddTable(title string, header []string, rows [][]string) {
	var sb strings.Builder
	sb.WriteString("<table><thead><tr>")
	for _, h := range header {
		fmt.Fprintf(&sb, "<th>%s</th>", html.EscapeString(h))
	}
	sb.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&sb, "<td>%s</td>", html.EscapeString(cell))
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	b.sections = append(b.sections, section{title: title, body: sb.String()})
}

// WriteHTML renders the accumulated report as one HTML page.
func (b *Builder) WriteHTML(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&sb, "<title>%s</title>", html.EscapeString(b.title))
	sb.WriteString(`<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 0.3em 0.6em; text-align: right; }
th { background: #eee; }
</style></head><body>`)
	fmt.Fprintf(&sb, "<h1>%s</h1>", html.EscapeString(b.title))
	fmt.Fprintf(&sb, "<p>Generated %s</p>", time.Now().Format(time.RFC3339))
	for _, s := range b.sections {
		fmt.Fprintf(&sb, "<h2>%s</h2>\n%s\n", html.EscapeString(s.title), s.body)
	}
	sb.WriteString("</body></html>\n")

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
