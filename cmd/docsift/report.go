package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/dgallion1/docsift/internal/stats"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// renderReport prints one line per document and a summary box with the
// success and failure counts.
func renderReport(w io.Writer, title string, report pipeline.Report, extra ...string) {
	for _, d := range report.Documents {
		var mark string
		switch {
		case d.Succeeded():
			mark = successStyle.Render("ok  ")
		case d.Status == pipeline.StatusDupSkipped:
			mark = warnStyle.Render("dup ")
		default:
			mark = errorStyle.Render("fail")
		}
		line := fmt.Sprintf("%s %s", mark, d.Document)
		if d.Succeeded() {
			line += dimStyle.Render(fmt.Sprintf("  %d pages, %d sections via %s", d.Pages, d.Sections, d.Extractor))
		} else if d.Error != "" {
			line += dimStyle.Render("  " + d.Error)
		}
		fmt.Fprintln(w, line)
	}

	succeeded, failed := report.Counts()
	failedText := fmt.Sprintf("%d", failed)
	if failed > 0 {
		failedText = errorStyle.Render(failedText)
	}
	lines := []string{
		titleStyle.Render(title),
		fmt.Sprintf("%s %s  %s %s  %s %.1fs",
			dimStyle.Render("Succeeded:"), successStyle.Render(fmt.Sprintf("%d", succeeded)),
			dimStyle.Render("Failed:"), failedText,
			dimStyle.Render("Duration:"), report.Duration.Seconds(),
		),
	}
	lines = append(lines, extra...)
	lines = append(lines, dimStyle.Render("Run: "+report.RunID))
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// latencyLine summarises an oracle's latency snapshot.
func latencyLine(name string, s stats.Snapshot) string {
	if s.Count == 0 {
		return fmt.Sprintf("%s %s", dimStyle.Render(name+":"), dimStyle.Render("no calls"))
	}
	return fmt.Sprintf("%s %d calls, %d errors, p50 %.0fms, p95 %.0fms",
		dimStyle.Render(name+":"), s.Count, s.Errors, s.P50Ms, s.P95Ms)
}
