package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("ID", "STRATEGY", "PRICE").AlignRight(2)
	table.AddRow("a1", "default", "100.00")
	table.AddRow("b22", "rush", "5.50")
	table.AddRow("c")
	table.Render()

	want := "ID  │ STRATEGY │  PRICE\n" +
		"────┼──────────┼───────\n" +
		"a1  │ default  │ 100.00\n" +
		"b22 │ rush     │   5.50\n" +
		"c   │          │\n"
	require.Equal(t, want, buf.String())
	require.Equal(t, 3, table.Len())
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Success("stored %s", "print")
	w.Warning("%d%% done", 50)
	w.Error("failed")
	require.Equal(t, "✓ stored print\n⚠ 50% done\n✗ failed\n", buf.String())
}

func TestColorOnlyWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, false).Success("ok")
	require.Equal(t, Green+"✓ "+Reset+"ok\n", buf.String())

	require.False(t, IsTerminal(&buf))
	buf.Reset()
	NewAutoWriter(&buf).Success("ok")
	require.Equal(t, "✓ ok\n", buf.String())
}
