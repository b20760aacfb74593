package orchestrator

import (
	"time"

	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventTaskStarted indicates the cursor reached a task and its ledger entry was initialized.
	EventTaskStarted EventType = "task_started"
	// EventAttemptFailed indicates one execution attempt failed.
	EventAttemptFailed EventType = "attempt_failed"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskSplit indicates an exhausted task was replaced by finer subtasks.
	EventTaskSplit EventType = "task_split"
	// EventTaskDropped indicates an exhausted task was abandoned.
	EventTaskDropped EventType = "task_dropped"
	// EventRunFinished indicates the engine left its loop.
	EventRunFinished EventType = "run_finished"
)

// Event represents a state transition emitted by the engine.
// Events are used to update the TUI and the run journal.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID models.TaskID
	// Description is the description of the related task, if applicable.
	Description string
	// Attempt is the 1-based attempt number for attempt events.
	Attempt int
	// Subtasks holds the replacement tasks for EventTaskSplit.
	Subtasks []models.Task
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Remaining is the number of tasks at or after the cursor.
	Remaining int
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// EventSink receives engine events. HandleEvent is called synchronously from
// the engine loop and must not block for long.
type EventSink interface {
	HandleEvent(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// HandleEvent calls f(e).
func (f EventSinkFunc) HandleEvent(e Event) {
	f(e)
}
