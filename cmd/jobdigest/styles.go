package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/output"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(1, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	newCellStyle = cellStyle.
			Foreground(lipgloss.Color("42")) // green

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Columns shown in the console preview. URL is left out to keep rows on one line.
var previewColumns = []int{0, 1, 2, 4, 5, 6}

// renderRecords draws records as a rounded table using the snapshot's columns.
func renderRecords(records []model.JobRecord) string {
	headers := make([]string, len(previewColumns))
	for i, c := range previewColumns {
		headers[i] = output.Header[c]
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 && row >= 0 && row < len(records) && records[row].IsNew:
				return newCellStyle
			default:
				return cellStyle
			}
		})

	for _, r := range records {
		full := output.Row(r)
		row := make([]string, len(previewColumns))
		for i, c := range previewColumns {
			row[i] = truncate(full[c], 40)
		}
		t.Row(row...)
	}
	return t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
