package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/christopherklint97/timepulse/internal/tui"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func errStyle(s string) string { return tui.WarnStyle.Render(s) }

func heading(s string) string { return tui.HeaderStyle.Render(s) }

func dim(s string) string { return tui.DimStyle.Render(s) }

func ok(s string) string { return tui.OKStyle.Render(s) }

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tui.DimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		}).
		String()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func hours(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

var stdout io.Writer = os.Stdout
