package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/deskpilot/internal/control"
	"github.com/ShayCichocki/deskpilot/internal/orchestrator"
	"github.com/ShayCichocki/deskpilot/internal/state"
	"github.com/ShayCichocki/deskpilot/internal/tui"
	"github.com/ShayCichocki/deskpilot/pkg/models"
)

var (
	runTUI    bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Decompose a goal and carry it out on this machine",
	Long: `Run decomposes the goal into PC-operable tasks and executes them in order.

The goal comes from the arguments, or from the goal setting when no
arguments are given. Each task is attempted up to retry_attempts+1 times.
A task that keeps failing is broken down further; a task that keeps
erroring is reported to notification_recipient_email and dropped.

Use --dry-run to print the task list without executing anything, and
"deskpilot stop" from another terminal to stop before the next task.`,
	RunE: runGoal,
}

func init() {
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show a live progress display")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the task list and exit without executing")
}

func runGoal(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	useTUI := runTUI && !runDryRun && terminalAttached()
	if runTUI && !useTUI && !runDryRun {
		printStatus(out, "!", "No terminal attached, showing plain output instead of --tui", color.FgYellow)
	}

	logger, err := newLogger(cfg, useTUI)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := newPlanner(cfg, log)
	if err != nil {
		return err
	}
	notifier := newNotifier(cfg, log)

	log.Info("decomposing goal", "goal", cfg.Goal)
	printStatus(out, "→", "Decomposing goal...", color.FgCyan)
	tasks, err := p.builder.Decompose(ctx, cfg.Goal)
	if err != nil {
		log.Error("execution failed", "error", err)
		notifyRunFailure(notifier, cfg.NotificationRecipientEmail, err)
		return fmt.Errorf("decompose goal: %w", err)
	}
	printTaskList(out, "Task list:", tasks)

	if runDryRun {
		return nil
	}

	lock, err := control.AcquireRunLock(cfg.State.Dir)
	if err != nil {
		return err
	}
	defer lock.Release()

	db, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	journal, err := state.StartRun(db, cfg.Goal, log)
	if err != nil {
		return fmt.Errorf("start run journal: %w", err)
	}
	log = log.With("run_id", journal.RunID())

	executor, err := newExecutor(cfg, p.oracle, log)
	if err != nil {
		return err
	}
	pol, err := cfg.Policy()
	if err != nil {
		return err
	}

	opts := []orchestrator.Option{
		orchestrator.WithPolicy(pol),
		orchestrator.WithNotifier(notifier),
		orchestrator.WithRecipient(cfg.NotificationRecipientEmail),
		orchestrator.WithLogger(log),
		orchestrator.WithEventSink(journal),
	}
	if w := newStopWatcher(cfg, log); w != nil {
		defer w.Close()
		opts = append(opts, orchestrator.WithStopper(w))
	}

	required := orchestrator.RequiredConfig{Executor: executor, Splitter: p.builder}

	var report *orchestrator.Report
	var runErr error
	if useTUI {
		emitter := orchestrator.NewEventEmitter(64, log)
		engine := orchestrator.New(required, append(opts, orchestrator.WithEventSink(emitter))...)
		report, runErr = runWithTUI(ctx, cancel, cfg.Goal, engine, emitter, tasks, log)
	} else {
		printStatus(out, "→", fmt.Sprintf("Executing %d tasks (run %s)...", len(tasks), journal.RunID()), color.FgCyan)
		report, runErr = orchestrator.New(required, opts...).Run(ctx, tasks)
	}

	printReport(out, report)
	in, outTokens := p.client.Tracker().Total()
	fmt.Fprintf(out, "\nTokens: %d in / %d out (~$%.2f)\n", in, outTokens, p.client.Tracker().Cost())

	if err := journal.Finish(runStatusFor(runErr), report.Successful, report.Total(), report.Summary()); err != nil {
		log.Warn("journal finish failed", "error", err)
	}

	if runErr != nil {
		log.Error("execution failed", "error", runErr)
		notifyRunFailure(notifier, cfg.NotificationRecipientEmail, runErr)
		return runErr
	}
	return nil
}

// runWithTUI runs the engine in a goroutine while the progress display owns
// the terminal. Quitting the display cancels the run.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, goal string, engine *orchestrator.Engine, emitter *orchestrator.EventEmitter, tasks []models.Task, log *slog.Logger) (*orchestrator.Report, error) {
	program, _ := tui.NewProgram(goal, emitter.Events(), cancel)

	type result struct {
		report *orchestrator.Report
		err    error
	}
	done := make(chan result, 1)

	go func() {
		report, err := engine.Run(ctx, tasks)
		emitter.Close()
		program.Send(tui.DoneMsg{Report: report, Err: err})
		done <- result{report, err}
	}()

	if _, err := program.Run(); err != nil {
		log.Warn("progress display failed", "error", err)
		cancel()
	}

	r := <-done
	return r.report, r.err
}

// terminalAttached reports whether stdout is an interactive terminal.
func terminalAttached() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
