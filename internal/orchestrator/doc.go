// Package orchestrator runs a flat sequence of leaf tasks to completion.
//
// The Engine walks the sequence with a cursor, one task at a time:
//   - Retry budget: each task gets a bounded number of attempts, tracked in the Ledger
//   - Re-decomposition: an exhausted task can be replaced in place by finer subtasks
//   - Notify and drop: an exhausted task can be reported and removed instead
//
// Which exhaustion action applies to which failure kind is set by the policy
// package. Every transition is emitted as an Event to the configured sinks;
// EventEmitter adapts them to a channel for asynchronous consumers.
//
// Example usage:
//
//	engine := orchestrator.New(orchestrator.RequiredConfig{
//		Executor: executor,
//		Splitter: builder,
//	}, orchestrator.WithNotifier(notifier), orchestrator.WithRecipient(addr))
//	report, err := engine.Run(ctx, tasks)
package orchestrator
