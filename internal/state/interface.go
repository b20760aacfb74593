package state

import "io"

// RunStore handles run persistence.
type RunStore interface {
	CreateRun(r *Run) error
	GetRun(id string) (*Run, error)
	FinishRun(id string, status RunStatus, successful, total int, summary string) error
	ListRuns(limit int) ([]Run, error)
}

// EventStore handles task event persistence.
type EventStore interface {
	AddEvent(e *TaskEvent) error
	ListEvents(runID string) ([]TaskEvent, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store composes the journal interfaces.
type Store interface {
	io.Closer
	Migrator
	RunStore
	EventStore
}

var (
	_ Store      = (*DB)(nil)
	_ RunStore   = (*DB)(nil)
	_ EventStore = (*DB)(nil)
)
