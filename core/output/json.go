package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter renders the report as JSON
type JSONFormatter struct {
	// Indent is used per nesting level; empty writes compact JSON
	Indent string
}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Render encodes the report
func (f *JSONFormatter) Render(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(report)
}
