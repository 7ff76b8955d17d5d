package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"value_investor/pkg/core/calc"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders the report as a Markdown document: cards as a list, then
// one table row per period.
func Markdown(r *Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Fundamental Analysis: %s (%s)\n\n", escapeCell(r.Ticker), r.Cadence)

	if r.Price != nil {
		fmt.Fprintf(&sb, "**Price**: %s %s\n\n", r.Price.Display, r.Price.Change)
	}

	if len(r.Cards) > 0 {
		for _, c := range r.Cards {
			fmt.Fprintf(&sb, "- **%s**: %s\n", escapeCell(c.Title), c.Display)
		}
		sb.WriteString("\n")
	}

	header := []string{"Period"}
	for _, f := range r.Fields {
		header = append(header, string(f))
	}
	header = append(header, "Revenue Growth")
	writeRow(&sb, header)

	sep := make([]string, len(header))
	sep[0] = "---"
	for i := 1; i < len(sep); i++ {
		sep[i] = "---:"
	}
	writeRow(&sb, sep)

	for _, row := range r.Rows {
		cells := []string{escapeCell(row.Period)}
		for _, f := range r.Fields {
			cells = append(cells, row.Display[f])
		}
		cells = append(cells, row.GrowthDisplay)
		writeRow(&sb, cells)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("| ")
	sb.WriteString(strings.Join(cells, " | "))
	sb.WriteString(" |\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderHTML converts Markdown to an HTML fragment.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return buf.String(), nil
}

// Page renders the report as a standalone HTML document.
func Page(r *Report) (string, error) {
	body, err := RenderHTML(Markdown(r))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head><meta charset='utf-8'>")
	fmt.Fprintf(&sb, "<title>%s</title>", html.EscapeString(r.Ticker+" fundamentals"))
	sb.WriteString(`<style>
body{font-family:Arial,Helvetica,sans-serif}
table{border-collapse:collapse;width:100%}td,th{border:1px solid #ccc;padding:6px}
th{background:#f2f2f2}
</style></head><body>`)
	sb.WriteString(body)
	sb.WriteString("</body></html>")
	return sb.String(), nil
}

// Unavailable counts unavailable cells per field, for logging sparse tables.
func Unavailable(r *Report) map[calc.Field]int {
	out := make(map[calc.Field]int)
	for _, row := range r.Rows {
		for _, f := range r.Fields {
			if !row.Values[f].Available() {
				out[f]++
			}
		}
	}
	return out
}
