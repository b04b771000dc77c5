package output

import (
	"fmt"
	"io"

	"pricing-engine/core/determinism"
)

const (
	cliRule   = "─────────────────────────────────────────────────────────────────────────"
	cliTitle  = "                      PRICE CALCULATION BREAKDOWN                      "
	cliRow    = "│ %-50s %20s │\n"
	cliDetail = "│   └─ %-45s %20s │\n"
)

// CLIFormatter renders a box-drawn table for terminals
type CLIFormatter struct {
	Options
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format { return FormatCLI }

// Render writes the breakdown table followed by the final price
func (f *CLIFormatter) Render(w io.Writer, report *Report) error {
	p := &printer{w: w}

	p.line("┌" + cliRule + "┐")
	p.line("│ " + cliTitle + " │")
	p.line("├" + cliRule + "┤")

	for _, entry := range report.Result.Breakdown {
		label := fmt.Sprintf("%d. %s (%s)", entry.StepID, entry.Name, entry.Operation)
		p.printf(cliRow, truncate(label, 50),
			determinism.NewMoneyFromFloat(entry.Result, "").StringFixed(2))

		p.printf(cliDetail, truncate(entry.Calculation, 45), "")
		if f.ShowDetails {
			p.printf(cliDetail, truncate(entry.Description, 45), "")
		}
	}

	p.line("├" + cliRule + "┤")
	p.printf(cliRow, "FINAL PRICE",
		determinism.NewMoneyFromFloat(report.Result.FinalPrice, report.Currency).StringFixed(2))
	p.line("└" + cliRule + "┘")

	if f.ShowDetails {
		if report.Metadata.Duration != "" {
			p.printf("\nCalculation completed in %s\n", report.Metadata.Duration)
		}
		if report.Metadata.InputHash != "" {
			p.printf("Input hash: %s\n", report.Metadata.InputHash)
		}
	}

	return p.err
}

// printer remembers the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}
