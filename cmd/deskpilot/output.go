package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator"
	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

// printTaskList prints tasks as "id: description" lines under a heading.
func printTaskList(w io.Writer, heading string, tasks []models.Task) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint(heading))
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, line := range models.FormatTaskList(tasks) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// printReport prints the run summary, the final task sequence and any
// dropped tasks.
func printReport(w io.Writer, report *orchestrator.Report) {
	fmt.Fprintln(w)
	attr := color.FgGreen
	if report.Successful < report.Total() {
		attr = color.FgYellow
	}
	printStatus(w, "■", report.Summary(), attr)
	fmt.Fprintf(w, "  processed %d, split %d, dropped %d in %s\n",
		report.Processed, report.Splits, len(report.Dropped), formatDuration(report.Duration))
	fmt.Fprintln(w)

	printTaskList(w, "Final task list:", report.Tasks)
	if len(report.Dropped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, color.New(color.Bold).Sprint("Dropped tasks:"))
		for _, d := range report.Dropped {
			fmt.Fprintf(w, "  %s: %s (%s)\n", d.Task.ID, d.Task.Description, color.RedString("%v", d.Err))
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
