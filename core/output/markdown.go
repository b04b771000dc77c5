package output

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"pricing-engine/core/determinism"
	"pricing-engine/core/types"
)

// MarkdownFormatter renders a markdown report with a breakdown table
type MarkdownFormatter struct {
	Options
}

// Format returns FormatMarkdown
func (f *MarkdownFormatter) Format() Format { return FormatMarkdown }

// Render writes the report
func (f *MarkdownFormatter) Render(w io.Writer, report *Report) error {
	_, err := w.Write(f.markdown(report))
	return err
}

func (f *MarkdownFormatter) markdown(report *Report) []byte {
	var buf bytes.Buffer
	p := &printer{w: &buf}

	p.line("# Price Calculation")
	p.line("")
	p.printf("**Final price:** %s\n\n",
		determinism.NewMoneyFromFloat(report.Result.FinalPrice, report.Currency).StringFixed(2))

	if len(report.Result.Breakdown) > 0 {
		header := "| Step | Name | Operation | Calculation | Result |"
		rule := "|---:|---|---|---|---:|"
		if f.ShowDetails {
			header = "| Step | Name | Operation | Description | Inputs | Calculation | Result |"
			rule = "|---:|---|---|---|---|---|---:|"
		}
		p.line(header)
		p.line(rule)

		for _, e := range report.Result.Breakdown {
			cells := []string{
				strconv.Itoa(e.StepID),
				cell(e.Name),
				e.Operation,
			}
			if f.ShowDetails {
				cells = append(cells, cell(e.Description), formatInputs(e.Inputs))
			}
			cells = append(cells,
				"`"+e.Calculation+"`",
				determinism.NewMoneyFromFloat(e.Result, "").StringFixed(2))
			p.line("| " + strings.Join(cells, " | ") + " |")
		}
		p.line("")
	}

	if m := report.Metadata; m.InputHash != "" || m.Version != "" {
		p.line("---")
		p.line("")
		if m.RequestID != "" {
			p.printf("- Request: `%s`\n", m.RequestID)
		}
		if m.InputHash != "" {
			p.printf("- Input hash: `%s`\n", m.InputHash)
		}
		if m.Version != "" {
			p.printf("- Engine version: %s\n", m.Version)
		}
	}

	return buf.Bytes()
}

// cell escapes pipes so a value stays in its table column
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatInputs(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = types.FormatNumber(v)
	}
	return strings.Join(parts, ", ")
}
