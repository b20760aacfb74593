package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/deskpilot/internal/config"
	"github.com/ShayCichocki/deskpilot/internal/state"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show recorded runs",
	Long: `Display the run journal.

Without arguments, lists the most recent runs.
With a run ID, shows that run and every event recorded for it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of runs to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	path := cfg.State.DBPath
	if path == "" {
		path = state.DefaultDBPath(cfg.State.Dir)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No runs recorded. Run 'deskpilot run <goal>' to start.")
		return nil
	}

	db, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	if len(args) == 1 {
		return showRun(out, db, args[0])
	}
	return listRuns(out, db, statusLimit)
}

func listRuns(w io.Writer, db state.Store, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded. Run 'deskpilot run <goal>' to start.")
		return nil
	}

	fmt.Fprintln(w, "Recent Runs:")
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s  %d/%d  %s ago  %s\n",
			r.ID, statusColor(r.Status), r.Successful, r.Total,
			formatDuration(time.Since(r.StartedAt)), truncateGoal(r.Goal, 50))
	}
	return nil
}

func showRun(w io.Writer, db state.Store, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}

	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "  Goal: %s\n", run.Goal)
	fmt.Fprintf(w, "  Status: %s\n", statusColor(run.Status))
	fmt.Fprintf(w, "  Started: %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(run.FinishedAt.Sub(run.StartedAt)))
	}
	if run.Summary != "" {
		fmt.Fprintf(w, "  Summary: %s\n", run.Summary)
	}

	events, err := db.ListEvents(id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nEvents:")
	for _, e := range events {
		line := fmt.Sprintf("  %s  %-15s %-8s", e.CreatedAt.Local().Format(time.TimeOnly), e.Type, e.TaskID)
		switch {
		case e.Error != "":
			line += " " + color.RedString(e.Error)
		case e.Description != "":
			line += " " + e.Description
		case e.Message != "":
			line += " " + e.Message
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func statusColor(s state.RunStatus) string {
	switch s {
	case state.RunCompleted:
		return color.GreenString(string(s))
	case state.RunFailed:
		return color.RedString(string(s))
	case state.RunStopped:
		return color.YellowString(string(s))
	default:
		return color.CyanString(string(s))
	}
}

func truncateGoal(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
