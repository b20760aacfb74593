// Package tui provides the read-only progress display for deskpilot run.
//
// The display shows the current task and attempt, completed, split and
// dropped counts, a progress bar, and a log of recent engine events. It is
// fed from an orchestrator.EventEmitter channel:
//
//	emitter := orchestrator.NewEventEmitter(64, logger)
//	program, _ := tui.NewProgram(goal, emitter.Events(), cancel)
//	go func() {
//	    report, err := engine.Run(ctx, tasks)
//	    program.Send(tui.DoneMsg{Report: report, Err: err})
//	}()
//	program.Run()
//
// Users can only quit with 'q' or Ctrl+C, which also cancels the run.
package tui
