package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lensreport/internal/pipeline"
)

type SummaryRow struct {
	Label string
	Value string
}

// RowsFor lists the counters of a finished run.
func RowsFor(summary pipeline.Summary) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Images found", Value: fmt.Sprintf("%d", summary.Discovered)},
		{Label: "Downloaded", Value: fmt.Sprintf("%d", summary.Fetched)},
		{Label: "Skipped (unavailable)", Value: fmt.Sprintf("%d", summary.Skipped)},
		{Label: "Failed", Value: fmt.Sprintf("%d", summary.Failed)},
		{Label: "No visual matches", Value: fmt.Sprintf("%d", summary.NoMatches)},
		{Label: "Analyzed", Value: fmt.Sprintf("%d", summary.Analyzed)},
	}
	if summary.ReportPath != "" {
		rows = append(rows, SummaryRow{Label: "Report", Value: summary.ReportPath})
	}
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", summaryLabelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	summaryLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	valueStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
)
