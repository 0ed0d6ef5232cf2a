package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	json "github.com/goccy/go-json"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderTable writes rows under headers as a bordered terminal table.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// formatValue renders a metric for a table cell. Counts print as integers
// and undefined rates as "n/a".
func formatValue(key string, v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case countKeys[key]:
		return strconv.Itoa(int(v))
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

var countKeys = map[string]bool{"tp": true, "fp": true, "tn": true, "fn": true, "n": true}
