// Package output provides output formatting interfaces.
// This package produces human and machine-readable calculation reports.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"pricing-engine/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatHTML is an HTML report
	FormatHTML Format = "html"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCLI, FormatJSON, FormatHTML, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "", "table":
		return FormatCLI, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want cli, json, markdown or html)", s)
	}
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Report is a calculation result with the context it was produced in
type Report struct {
	// Result is the engine output
	Result *types.CalculationResult `json:"result"`

	// Currency labels amounts; empty when the catalog has no single currency
	Currency string `json:"currency,omitempty"`

	// Metadata contains execution context
	Metadata Metadata `json:"metadata"`
}

// Metadata contains execution context
type Metadata struct {
	// RequestID identifies the calculation
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is when the calculation was performed
	Timestamp string `json:"timestamp,omitempty"`

	// Duration is how long the calculation took
	Duration string `json:"duration,omitempty"`

	// InputHash is a hash of nodes, strategy and inputs
	InputHash string `json:"input_hash,omitempty"`

	// Strategy is the stored strategy name, if one was used
	Strategy string `json:"strategy,omitempty"`

	// Version is the engine version
	Version string `json:"version,omitempty"`
}

// Options control how much detail formatters show
type Options struct {
	// ShowDetails adds descriptions and resolved inputs
	ShowDetails bool
}

// Registry manages formatter registration
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

// NewRegistry creates a registry holding the built-in formatters
func NewRegistry(opts Options) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	for _, f := range []Formatter{
		&CLIFormatter{Options: opts},
		&JSONFormatter{Indent: "  "},
		&MarkdownFormatter{Options: opts},
		&HTMLFormatter{Options: opts},
	} {
		_ = r.Register(f)
	}
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Format()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns a formatter for a format type
func (r *Registry) Get(format Format) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[format]
	return f, ok
}

// Formats returns the registered formats, sorted
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]Format, 0, len(r.formatters))
	for f := range r.formatters {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Render looks up the formatter for format and renders report with it
func (r *Registry) Render(w io.Writer, format Format, report *Report) error {
	f, ok := r.Get(format)
	if !ok {
		return fmt.Errorf("no formatter registered for %q", format)
	}
	return f.Render(w, report)
}

func truncate(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
