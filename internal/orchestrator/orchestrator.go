package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator/policy"
	"github.com/ShayCichocki/deskpilot/pkg/models"
)

var (
	// ErrStopped is returned when the run ends early because of a stop
	// signal or context cancellation.
	ErrStopped = errors.New("run stopped before all tasks were processed")
	// ErrTaskLimit is returned when the cursor visited the maximum number of tasks.
	ErrTaskLimit = errors.New("task limit reached")

	errAttemptUnsuccessful = errors.New("execution attempt was unsuccessful")
)

// TaskExecutor runs one attempt of a leaf task. A false result with a nil
// error is a plain failure; a non-nil error is an exceptional failure.
type TaskExecutor interface {
	Execute(ctx context.Context, task models.Task) (bool, error)
}

// TaskSplitter breaks a failed task into finer subtasks with IDs derived from it.
type TaskSplitter interface {
	Split(ctx context.Context, task models.Task) ([]models.Task, error)
}

// Notifier delivers a fire-and-forget alert. Delivery failures are the
// notifier's concern and are never reported back.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string)
}

// Stopper reports an external request to stop the run.
type Stopper interface {
	ShouldStop() bool
}

// Engine is the task execution control loop. It processes one task at a
// time; the working sequence and the ledger belong to the goroutine calling Run.
type Engine struct {
	executor  TaskExecutor
	splitter  TaskSplitter
	notifier  Notifier
	recipient string
	stopper   Stopper
	ledger    *Ledger
	policy    *policy.Config
	logger    *slog.Logger
	sinks     []EventSink
}

// New creates an Engine.
func New(req RequiredConfig, opts ...Option) *Engine {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pc := policy.Default()
	if o.policyConfig != nil {
		c := *o.policyConfig
		if err := c.Validate(); err != nil {
			logger.Warn("invalid exhaustion policy, using defaults", "error", err)
			c.Exhaustion = pc.Exhaustion
		}
		pc = &c
	}
	ledger := o.ledger
	if ledger == nil {
		ledger = NewLedger(pc.Retry.MaxRetries)
	}

	return &Engine{
		executor:  req.Executor,
		splitter:  req.Splitter,
		notifier:  o.notifier,
		recipient: o.recipient,
		stopper:   o.stopper,
		ledger:    ledger,
		policy:    pc,
		logger:    logger,
		sinks:     o.sinks,
	}
}

// Ledger returns the status ledger used by the engine.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Run processes tasks in order and returns the final, mutated sequence in the
// report. The report is non-nil even when an error is returned.
//
// The cursor advances only on success. Re-decomposition splices the subtasks
// in at the cursor and dropping removes the task, so in both cases the next
// task to process already sits at the cursor.
func (e *Engine) Run(ctx context.Context, tasks []models.Task) (*Report, error) {
	start := time.Now()
	seq := append([]models.Task(nil), tasks...)
	report := &Report{Initial: len(tasks)}

	var runErr error
	cursor := 0
	for cursor < len(seq) {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("%w: %w", ErrStopped, err)
			break
		}
		if e.stopper != nil && e.stopper.ShouldStop() {
			runErr = ErrStopped
			break
		}
		if report.Processed >= e.policy.Limits.MaxTasks {
			runErr = fmt.Errorf("%w: visited %d tasks", ErrTaskLimit, report.Processed)
			break
		}
		report.Processed++

		task := seq[cursor]
		if err := e.ledger.Initialize(task.ID); err != nil {
			runErr = err
			break
		}
		e.logger.Info("processing task", "task_id", task.ID, "description", task.Description)
		e.emit(Event{Type: EventTaskStarted, TaskID: task.ID, Description: task.Description, Remaining: len(seq) - cursor})

		var err error
		seq, cursor, err = e.process(ctx, seq, cursor, report)
		if err != nil {
			runErr = fmt.Errorf("%w: %w", ErrStopped, err)
			break
		}
	}

	report.Tasks = seq
	report.Remaining = len(seq) - cursor
	report.Successful = e.ledger.SuccessfulCount()
	report.Initialized = e.ledger.InitializedCount()
	report.Duration = time.Since(start)

	if runErr != nil {
		e.logger.Error("execution stopped", "error", runErr, "processed", report.Processed, "remaining", report.Remaining)
	} else {
		e.logger.Info(report.Summary())
	}
	e.emit(Event{Type: EventRunFinished, Message: report.Summary(), Error: runErr, Remaining: report.Remaining})

	return report, runErr
}

// process retries the task at cursor until it succeeds or its budget runs
// out, and returns the possibly mutated sequence with the new cursor.
// An error is returned only when the context is canceled mid-task.
func (e *Engine) process(ctx context.Context, seq []models.Task, cursor int, report *Report) ([]models.Task, int, error) {
	task := seq[cursor]

	for attempt := 1; ; attempt++ {
		ok, err := e.executor.Execute(ctx, task)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return seq, cursor, ctxErr
		}

		if err == nil && ok {
			e.ledger.UpdateStatus(task.ID, models.TaskStatusCompleted)
			e.logger.Info("task completed", "task_id", task.ID, "attempt", attempt)
			e.emit(Event{Type: EventTaskCompleted, TaskID: task.ID, Description: task.Description, Attempt: attempt, Remaining: len(seq) - cursor - 1})
			return seq, cursor + 1, nil
		}

		e.ledger.UpdateStatus(task.ID, models.TaskStatusFailed)
		withError := err != nil
		if withError {
			e.logger.Error("error executing task", "task_id", task.ID, "attempt", attempt, "error", err)
		} else {
			e.logger.Warn("task execution failed", "task_id", task.ID, "attempt", attempt)
		}
		e.emit(Event{Type: EventAttemptFailed, TaskID: task.ID, Description: task.Description, Attempt: attempt, Error: err, Remaining: len(seq) - cursor})

		if e.ledger.IncrementRetry(task.ID) {
			continue
		}

		action := e.policy.Exhaustion.For(withError)
		e.logger.Warn("max retries exceeded", "task_id", task.ID, "retries", e.ledger.Retries(task.ID)-1, "action", action)

		if action == policy.ActionRedecompose {
			subtasks, splitErr := e.splitter.Split(ctx, task)
			if splitErr == nil {
				e.ledger.Retire(task.ID)
				seq = models.Splice(seq, cursor, subtasks)
				report.Splits++
				e.logger.Info("task replaced by subtasks", "task_id", task.ID, "subtasks", len(subtasks))
				e.emit(Event{Type: EventTaskSplit, TaskID: task.ID, Description: task.Description, Subtasks: subtasks, Remaining: len(seq) - cursor})
				return seq, cursor, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return seq, cursor, ctxErr
			}
			e.logger.Error("re-decomposition failed, abandoning task", "task_id", task.ID, "error", splitErr)
			err = fmt.Errorf("re-decompose task: %w", splitErr)
		}

		if err == nil {
			err = errAttemptUnsuccessful
		}
		e.notifyFailure(ctx, task, err)
		report.Dropped = append(report.Dropped, DroppedTask{Task: task, Err: err})
		seq = models.Splice(seq, cursor, nil)
		e.emit(Event{Type: EventTaskDropped, TaskID: task.ID, Description: task.Description, Error: err, Remaining: len(seq) - cursor})
		return seq, cursor, nil
	}
}

// notifyFailure reports an abandoned task.
func (e *Engine) notifyFailure(ctx context.Context, task models.Task, err error) {
	if e.notifier == nil {
		return
	}
	subject := fmt.Sprintf("Task %s Failure", task.ID)
	body := fmt.Sprintf("Task %s failed after maximum retries: %v", task.ID, err)
	e.notifier.Notify(ctx, e.recipient, subject, body)
}

func (e *Engine) emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	for _, s := range e.sinks {
		s.HandleEvent(ev)
	}
}
