package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary draws label | value rows between two rules.
func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, utf8.RuneCountInString(row.Label))
		valueWidth = max(valueWidth, utf8.RuneCountInString(row.Value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}
	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderTable draws a header row and aligned columns. Short rows are padded
// with empty cells.
func RenderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}

	render := func(cells []string, style func(...string) string) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = style(padRight(cell, widths[i]))
		}
		return strings.Join(parts, "  ")
	}

	lines := []string{render(header, titleStyle.Render)}
	for _, row := range rows {
		lines = append(lines, render(row, labelStyle.Render))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
