package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"pricing-engine/core/engine"
	"pricing-engine/core/output"
)

const testCatalog = `
nodes:
  - path: /volume
    type: numeric
    cost: 10
    currency: USD
  - path: /material
    type: label
    value: pla
    cost: 20
    currency: USD
`

const testStrategy = `
version = 1
required_inputs = ["/volume"]

step "add" {
  id     = 1
  name   = "Base"
  inputs = ["/volume", "/material"]
}

step "multiply" {
  id     = 2
  name   = "Doubled"
  inputs = ["step__1", 2]
}
`

const testInputs = `[
  {"path": "/volume", "value": 3},
  {"path": "/material", "value": "pla"}
]`

// resetFlags restores every flag of c and its children to its default
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{dir: dir, config: filepath.Join(dir, "config.yaml")}

	cfg := "storage:\n  backend: bolt\n  path: " + filepath.Join(dir, "pricing.db") + "\n" +
		"logging:\n  level: error\n  output: " + filepath.Join(dir, "cli.log") + "\n" +
		"output:\n  default_format: cli\n  show_details: false\n"
	f.write(t, "config.yaml", cfg)
	f.write(t, "catalog.yaml", testCatalog)
	f.write(t, "strategy.hcl", testStrategy)
	f.write(t, "inputs.json", testInputs)
	return f
}

func (f *fixture) write(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(body), 0644))
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCalculateFromFiles(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "calculate",
		"--nodes", f.path("catalog.yaml"),
		"--strategy", f.path("strategy.hcl"),
		"--inputs", f.path("inputs.json"),
		"--format", "json")
	require.NoError(t, err, out)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, 100.0, report.Result.FinalPrice)
	require.Equal(t, "USD", report.Currency)
	require.Equal(t, engine.Version, report.Metadata.Version)
	require.Len(t, report.Result.Breakdown, 2)
	require.Equal(t, "Base", report.Result.Breakdown[0].Name)
}

func TestCalculateCLITable(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "calculate",
		"--nodes", f.path("catalog.yaml"),
		"--strategy", f.path("strategy.hcl"),
		"--inputs", f.path("inputs.json"))
	require.NoError(t, err, out)
	require.Contains(t, out, "FINAL PRICE")
	require.Contains(t, out, "100.00 USD")
}

func TestCalculateErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "calculate", "--nodes", f.path("catalog.yaml"))
	require.ErrorContains(t, err, "strategy is required")

	_, err = f.run(t, "calculate",
		"--nodes", f.path("catalog.yaml"),
		"--strategy", f.path("strategy.hcl"))
	require.ErrorContains(t, err, "MISSING_REQUIRED_INPUT")

	_, err = f.run(t, "calculate", "--strategy", f.path("strategy.hcl"), "--format", "pdf")
	require.ErrorContains(t, err, "unknown output format")

	_, err = f.run(t, "calculate", "--strategy", f.path("missing.json"))
	require.Error(t, err)
}

func TestStoredDocumentsAndResults(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "catalog", "put", "print", f.path("catalog.yaml"))
	require.NoError(t, err, out)
	require.Contains(t, out, "Stored catalog print (2 nodes)")

	out, err = f.run(t, "strategy", "put", "default", f.path("strategy.hcl"))
	require.NoError(t, err, out)
	require.Contains(t, out, "(2 steps)")

	out, err = f.run(t, "catalog", "list")
	require.NoError(t, err)
	require.Equal(t, "print\n", out)

	out, err = f.run(t, "strategy", "get", "default")
	require.NoError(t, err)
	require.Contains(t, out, `"name": "default"`)

	out, err = f.run(t, "calculate",
		"--catalog", "print",
		"--strategy-name", "default",
		"--inputs", f.path("inputs.json"),
		"--format", "json",
		"--save")
	require.NoError(t, err, out)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, "default", report.Metadata.Strategy)

	out, err = f.run(t, "results", "list", "--strategy", "default")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[2], "100.00")
	id := strings.Fields(lines[2])[0]

	out, err = f.run(t, "results", "get", id)
	require.NoError(t, err)
	require.Contains(t, out, `"final_price": 100`)

	out, err = f.run(t, "results", "list", "--strategy", "rush")
	require.NoError(t, err)
	require.Equal(t, "⚠ No stored results\n", out)

	_, err = f.run(t, "catalog", "get", "absent")
	require.ErrorContains(t, err, "NOT_FOUND")
}

func TestVersionAndConfig(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "version")
	require.NoError(t, err)
	require.Equal(t, "pricing-engine version "+engine.Version+"\n", out)

	out, err = f.run(t, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "backend: bolt")

	// init refuses to overwrite without --force
	_, err = f.run(t, "config", "init")
	require.ErrorContains(t, err, "already exists")

	fresh := filepath.Join(f.dir, "fresh", "config.json")
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config", fresh, "config", "init"})
	require.NoError(t, rootCmd.Execute())
	require.FileExists(t, fresh)
}
