package handlers

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"researchpub/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

// renderTable draws rows under headers with a rounded border
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// statusStyle colours a draft or item status
func statusStyle(status string) lipgloss.Style {
	switch status {
	case core.DraftStatusPublished, core.DraftStatusApproved, core.ItemStatusAnalyzed:
		return okStyle
	case core.DraftStatusFailed:
		return errStyle
	case core.ItemStatusSkipped:
		return warnStyle
	default:
		return lipgloss.NewStyle()
	}
}

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical", "high":
		return errStyle
	case "medium":
		return warnStyle
	default:
		return dimStyle
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
