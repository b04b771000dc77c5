package output

import (
	"html"
	"io"

	md "github.com/russross/blackfriday/v2"
)

// HTMLFormatter renders the markdown report to a standalone HTML page
type HTMLFormatter struct {
	Options
}

// Format returns FormatHTML
func (f *HTMLFormatter) Format() Format { return FormatHTML }

// Render writes the page
func (f *HTMLFormatter) Render(w io.Writer, report *Report) error {
	body := md.Run((&MarkdownFormatter{Options: f.Options}).markdown(report))

	title := "Price Calculation"
	if report.Metadata.Strategy != "" {
		title += " - " + report.Metadata.Strategy
	}

	p := &printer{w: w}
	p.line("<!DOCTYPE html>")
	p.line(`<html><head><meta charset="utf-8">`)
	p.printf("<title>%s</title>\n", html.EscapeString(title))
	p.line(`<style>table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}</style>`)
	p.line(`</head><body><div class="report">`)
	p.printf("%s", body)
	p.line(`</div></body></html>`)
	return p.err
}
