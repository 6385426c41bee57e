// Package ui holds the terminal styling shared by the CLI commands.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

var noColor = os.Getenv("NO_COLOR") != ""

func style(s lipgloss.Style) lipgloss.Style {
	if noColor {
		return lipgloss.NewStyle()
	}
	return s
}

var (
	Title   = style(lipgloss.NewStyle().Bold(true))
	Success = style(lipgloss.NewStyle().Foreground(lipgloss.Color("42")))
	Warning = style(lipgloss.NewStyle().Foreground(lipgloss.Color("214")))
	Error   = style(lipgloss.NewStyle().Foreground(lipgloss.Color("196")))
	Muted   = style(lipgloss.NewStyle().Foreground(lipgloss.Color("245")))
	ID      = style(lipgloss.NewStyle().Foreground(lipgloss.Color("39")))
)

// SeverityStyle picks a style for a drift or lint severity label.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "major", "error":
		return Error
	case "minor", "warning":
		return Warning
	default:
		return Muted
	}
}

// Table renders rows with the given header to w.
func Table(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	table.Header(cells...)
	for _, row := range rows {
		vals := make([]any, len(row))
		for i, c := range row {
			vals[i] = c
		}
		table.Append(vals...)
	}
	return table.Render()
}
