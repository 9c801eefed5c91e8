package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"HEADER1", "H2", "h3"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight, AlignLeft})
	table.WithHeaderAlignment([]Alignment{AlignCenter, AlignCenter, AlignRight})
	table.Append([]string{"ROW1", "ROW2", "foo bar"})
	table.Append([]string{"a", "b", "c"})
	table.Render()

	expected := `
+---------+------+---------+
| HEADER1 |  H2  |      h3 |
+---------+------+---------+
| ROW1    | ROW2 | foo bar |
| a       |    b | c       |
+---------+------+---------+
`
	require.Equal(t, strings.TrimSpace(expected)+"\n", buf.String())
}

func TestColoredTable(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"A", "B"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight})
	table.Append([]string{
		color.New(color.Bold).Sprint("bold"),
		color.GreenString("green"),
	})
	table.Append([]string{"x", "y"})
	table.Render()

	// Alignment is computed on visible width, so the colored cells line
	// up with the plain ones.
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		require.Equal(t, 16, visibleWidth(line), "line %q", line)
	}
}

func TestVisibleWidth(t *testing.T) {
	require.Equal(t, 5, visibleWidth("hello"))
	require.Equal(t, 5, visibleWidth("\x1b[1mhello\x1b[0m"))
	require.Equal(t, 0, visibleWidth(""))
}

func TestEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).Render()
	require.Equal(t, "", buf.String())
}
