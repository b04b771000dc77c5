package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pricing-engine/core/types"
)

func sampleReport() *Report {
	return &Report{
		Result: &types.CalculationResult{
			FinalPrice: 335,
			Breakdown: []types.BreakdownEntry{
				{StepID: 1, Name: "Base", Operation: "Addition", Description: "Sum of 3 values",
					Inputs: []float64{20, 100, 30}, Calculation: "20.00 + 100.00 + 30.00", Result: 150},
				{StepID: 7, Name: "Final", Operation: "Clamp", Description: "Clamp 335 between 50 and 500 - not clamped",
					Inputs: []float64{335, 50, 500}, Calculation: "clamp(335, 50, 500)", Result: 335},
			},
		},
		Currency: "USD",
		Metadata: Metadata{RequestID: "req-1", InputHash: "abc123", Version: "1.0.0", Strategy: "print"},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"cli": FormatCLI, "": FormatCLI, "JSON": FormatJSON, "md": FormatMarkdown,
		"markdown": FormatMarkdown, "html": FormatHTML,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Options{})
	require.Equal(t, []Format{FormatCLI, FormatHTML, FormatJSON, FormatMarkdown}, r.Formats())
	require.Error(t, r.Register(&JSONFormatter{}))

	var buf bytes.Buffer
	require.Error(t, r.Render(&buf, Format("pdf"), sampleReport()))
}

func TestCLIFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CLIFormatter{}).Render(&buf, sampleReport()))

	out := buf.String()
	require.Contains(t, out, "PRICE CALCULATION BREAKDOWN")
	require.Contains(t, out, "1. Base (Addition)")
	require.Contains(t, out, "20.00 + 100.00 + 30.00")
	require.Contains(t, out, "335.00 USD")
	require.NotContains(t, out, "Sum of 3 values")

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		require.Equal(t, 75, len([]rune(line)), line)
	}
}

func TestCLIFormatterDetails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CLIFormatter{Options: Options{ShowDetails: true}}).Render(&buf, sampleReport()))
	require.Contains(t, buf.String(), "Sum of 3 values")
	require.Contains(t, buf.String(), "Input hash: abc123")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Render(&buf, sampleReport()))

	var decoded struct {
		Result struct {
			FinalPrice float64 `json:"final_price"`
			Breakdown  []struct {
				StepID      int    `json:"step_id"`
				Calculation string `json:"calculation"`
			} `json:"breakdown"`
		} `json:"result"`
		Metadata Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, 335.0, decoded.Result.FinalPrice)
	require.Equal(t, 7, decoded.Result.Breakdown[1].StepID)
	require.Equal(t, "abc123", decoded.Metadata.InputHash)
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownFormatter{}).Render(&buf, sampleReport()))

	out := buf.String()
	require.Contains(t, out, "**Final price:** 335.00 USD")
	require.Contains(t, out, "| 1 | Base | Addition | `20.00 + 100.00 + 30.00` | 150.00 |")
	require.Contains(t, out, "- Input hash: `abc123`")
}

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLFormatter{}).Render(&buf, sampleReport()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	require.Contains(t, out, "<title>Price Calculation - print</title>")
	require.Contains(t, out, "<table>")
	require.Contains(t, out, "<h1>Price Calculation</h1>")
}
