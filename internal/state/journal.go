package state

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator"
)

// Journal records engine events for one run.
type Journal struct {
	store  Store
	runID  string
	logger *slog.Logger
}

var _ orchestrator.EventSink = (*Journal)(nil)

// StartRun creates a run row for goal with a fresh ID and returns a Journal
// writing to it.
func StartRun(store Store, goal string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	run := &Run{
		ID:        uuid.NewString(),
		Goal:      goal,
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
	if err := store.CreateRun(run); err != nil {
		return nil, err
	}
	return &Journal{store: store, runID: run.ID, logger: logger.With("run_id", run.ID)}, nil
}

// RunID returns the ID of the journaled run.
func (j *Journal) RunID() string {
	return j.runID
}

// HandleEvent implements orchestrator.EventSink. Write failures are logged
// and never stop the engine.
func (j *Journal) HandleEvent(e orchestrator.Event) {
	te := &TaskEvent{
		RunID:       j.runID,
		Type:        string(e.Type),
		TaskID:      string(e.TaskID),
		Description: e.Description,
		Attempt:     e.Attempt,
		Message:     e.Message,
		CreatedAt:   e.Timestamp,
	}
	if e.Error != nil {
		te.Error = e.Error.Error()
	}
	if err := j.store.AddEvent(te); err != nil {
		j.logger.Warn("journal write failed", "type", e.Type, "error", err)
	}
}

// Finish records the run outcome.
func (j *Journal) Finish(status RunStatus, successful, total int, summary string) error {
	return j.store.FinishRun(j.runID, status, successful, total, summary)
}
