package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MaxValueWidth is the widest scalar value the presenter prints before truncating.
const MaxValueWidth = 100

// Table renders aligned columns.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow adds a row; missing trailing cells are left blank.
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) {
			if w := lipgloss.Width(c); w > t.widths[i] {
				t.widths[i] = w
			}
		}
	}
	t.rows = append(t.rows, cols)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Render writes the table to w, header styled with header.
func (t *Table) Render(w io.Writer, header lipgloss.Style) {
	writeRow := func(cells []string, style *lipgloss.Style) {
		var sb strings.Builder
		sb.WriteString("  ")
		for i := range t.headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := t.widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			sb.WriteString(cell)
			if i < len(t.headers)-1 {
				sb.WriteString(strings.Repeat(" ", pad+2))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}

	writeRow(t.headers, &header)
	seps := make([]string, len(t.widths))
	for i, wd := range t.widths {
		seps[i] = strings.Repeat("-", wd)
	}
	writeRow(seps, nil)
	for _, row := range t.rows {
		writeRow(row, nil)
	}
}

// Truncate shortens s to at most maxLen runes, ending with "..." when cut.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
