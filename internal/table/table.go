// Package table renders simple ASCII tables with per-column alignment.
// Cell content may contain ANSI color sequences; widths are computed on
// the visible text.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Alignment controls how a cell is padded within its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// Table accumulates rows and renders them to a writer.
type Table struct {
	w               io.Writer
	header          []string
	rows            [][]string
	columnAlignment []Alignment
	headerAlignment []Alignment
}

// NewTable creates a table that renders to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithColumnAlignment sets the per-column alignment of body rows.
func (t *Table) WithColumnAlignment(a []Alignment) *Table {
	t.columnAlignment = a
	return t
}

// WithHeaderAlignment sets the per-column alignment of the header row.
func (t *Table) WithHeaderAlignment(a []Alignment) *Table {
	t.headerAlignment = a
	return t
}

// WithRows replaces the body rows.
func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = rows
	return t
}

// Append adds one body row.
func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// visibleWidth returns the cell width excluding ANSI sequences.
func visibleWidth(s string) int {
	return len([]rune(ansiPattern.ReplaceAllString(s, "")))
}

func (t *Table) columnCount() int {
	n := len(t.header)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func (t *Table) columnWidths() []int {
	widths := make([]int, t.columnCount())
	for i, h := range t.header {
		if w := visibleWidth(h); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func pad(cell string, width int, align Alignment) string {
	gap := width - visibleWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func (t *Table) alignmentFor(aligns []Alignment, col int) Alignment {
	if col < len(aligns) {
		return aligns[col]
	}
	return AlignLeft
}

func (t *Table) writeSeparator(widths []int) {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteByte('+')
	}
	fmt.Fprintln(t.w, sb.String())
}

func (t *Table) writeRow(row []string, widths []int, aligns []Alignment) {
	var sb strings.Builder
	sb.WriteByte('|')
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		sb.WriteByte(' ')
		sb.WriteString(pad(cell, w, t.alignmentFor(aligns, i)))
		sb.WriteString(" |")
	}
	fmt.Fprintln(t.w, sb.String())
}

// Render writes the table.
func (t *Table) Render() {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return
	}
	t.writeSeparator(widths)
	if len(t.header) > 0 {
		t.writeRow(t.header, widths, t.headerAlignment)
		t.writeSeparator(widths)
	}
	for _, row := range t.rows {
		t.writeRow(row, widths, t.columnAlignment)
	}
	t.writeSeparator(widths)
}
