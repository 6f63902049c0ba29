package formatter

import (
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

var tableHeaders = []string{"PROPERTY", "VALUE", "DEFAULT", "FLAGS"}

const (
	columnGap   = "  "
	indentWidth = 2
	minColWidth = 6
)

// RenderTable prints the report as aligned columns. maxWidth of 0 or less
// disables shrinking; otherwise the value and default columns give up width
// first.
func RenderTable(r Report, color bool, maxWidth int) string {
	rows := make([][]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		rows = append(rows, []string{
			strings.Repeat(" ", l.Indent*indentWidth) + flatten(l.Label),
			flatten(l.Value),
			flatten(l.Default),
			l.Flags(),
		})
	}

	widths := make([]int, len(tableHeaders))
	for c, h := range tableHeaders {
		widths[c] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for c, cell := range row {
			widths[c] = max(widths[c], runewidth.StringWidth(cell))
		}
	}
	fitWidths(widths, maxWidth)

	var b strings.Builder
	writeRow(&b, tableHeaders, widths, func(s string) string {
		if color {
			return headerStyle.Render(s)
		}
		return s
	})
	for i, row := range rows {
		l := r.Lines[i]
		writeRow(&b, row, widths, func(s string) string { return styleLine(l, s, color) })
	}
	return b.String()
}

// fitWidths shrinks the value then default columns until the row fits.
func fitWidths(widths []int, maxWidth int) {
	if maxWidth <= 0 {
		return
	}
	total := func() int {
		n := runewidth.StringWidth(columnGap) * (len(widths) - 1)
		for _, w := range widths {
			n += w
		}
		return n
	}
	for _, c := range []int{1, 2} {
		if over := total() - maxWidth; over > 0 {
			widths[c] = max(minColWidth, widths[c]-over)
		}
	}
}

func writeRow(b *strings.Builder, cells []string, widths []int, style func(string) string) {
	for c, cell := range cells {
		if c > 0 {
			b.WriteString(columnGap)
		}
		cell = runewidth.Truncate(cell, widths[c], "...")
		if c == len(cells)-1 {
			b.WriteString(style(cell))
			continue
		}
		b.WriteString(style(runewidth.FillRight(cell, widths[c])))
	}
	b.WriteString("\n")
}
