package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-drift/mapbridge/cmd/mapbridge/internal/script"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	reportStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	summaryStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func printReport(w io.Writer, r *script.Report) {
	fmt.Fprintln(w, titleStyle.Render(r.Name))
	for _, s := range r.Steps {
		mark := okStyle.Render("ok  ")
		if !s.OK {
			mark = failStyle.Render("FAIL")
		}
		line := fmt.Sprintf("%s %3d  %s", mark, s.Index, s.Step)
		if s.Error != "" {
			line += "  " + eventStyle.Render("-> "+s.Error)
		}
		fmt.Fprintln(w, line)
		if s.Problem != "" {
			fmt.Fprintln(w, "          "+failStyle.Render(s.Problem))
		}
		for _, e := range s.Events {
			fmt.Fprintln(w, "          "+eventStyle.Render(e.String()))
		}
		for _, rep := range s.Reports {
			fmt.Fprintln(w, "          "+reportStyle.Render("reported: "+rep))
		}
	}

	failed := len(r.Failed())
	summary := fmt.Sprintf("%d steps, %d failed", len(r.Steps), failed)
	if failed == 0 {
		fmt.Fprintln(w, summaryStyle.Inherit(okStyle).Render("PASS "+summary))
		return
	}
	fmt.Fprintln(w, summaryStyle.Inherit(failStyle).Render("FAIL "+summary))
}
