package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// ErrRetiredTask is returned when a retired identifier is initialized again.
var ErrRetiredTask = errors.New("task identifier has been retired")

// DefaultMaxRetries is the retry budget per task when none is configured.
const DefaultMaxRetries = 3

// ledgerEntry is the status ledger's record of a single task identifier.
type ledgerEntry struct {
	status  models.TaskStatus
	retries int
}

// Ledger tracks per-task status and retry counts for one run.
// It is owned by the engine's single control flow and is not safe for
// concurrent use.
type Ledger struct {
	maxRetries  int
	entries     map[models.TaskID]*ledgerEntry
	retired     map[models.TaskID]bool
	initialized int
}

// NewLedger creates a ledger allowing maxRetries retries per task.
// A negative value is treated as zero.
func NewLedger(maxRetries int) *Ledger {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Ledger{
		maxRetries: maxRetries,
		entries:    make(map[models.TaskID]*ledgerEntry),
		retired:    make(map[models.TaskID]bool),
	}
}

// MaxRetries returns the configured retry budget.
func (l *Ledger) MaxRetries() int {
	return l.maxRetries
}

// Initialize sets the task to pending with zero retries.
func (l *Ledger) Initialize(id models.TaskID) error {
	if l.retired[id] {
		return fmt.Errorf("initialize task %s: %w", id, ErrRetiredTask)
	}
	if _, ok := l.entries[id]; !ok {
		l.initialized++
	}
	l.entries[id] = &ledgerEntry{status: models.TaskStatusPending}
	return nil
}

// UpdateStatus overwrites the status of an initialized task.
func (l *Ledger) UpdateStatus(id models.TaskID, status models.TaskStatus) {
	if e, ok := l.entries[id]; ok {
		e.status = status
	}
}

// IncrementRetry bumps the retry counter and reports whether the new count
// is still within budget (count <= max).
func (l *Ledger) IncrementRetry(id models.TaskID) bool {
	e, ok := l.entries[id]
	if !ok {
		e = &ledgerEntry{status: models.TaskStatusPending}
		l.entries[id] = e
		l.initialized++
	}
	e.retries++
	return e.retries <= l.maxRetries
}

// Retire abandons the identifier. Its entry leaves the live set and the
// identifier can never be initialized again.
func (l *Ledger) Retire(id models.TaskID) {
	delete(l.entries, id)
	l.retired[id] = true
}

// Status returns the status of id, or TaskStatusUnknown.
func (l *Ledger) Status(id models.TaskID) models.TaskStatus {
	if e, ok := l.entries[id]; ok {
		return e.status
	}
	return models.TaskStatusUnknown
}

// Retries returns the retry count of id.
func (l *Ledger) Retries(id models.TaskID) int {
	if e, ok := l.entries[id]; ok {
		return e.retries
	}
	return 0
}

// IsRetired reports whether the identifier has been retired.
func (l *Ledger) IsRetired(id models.TaskID) bool {
	return l.retired[id]
}

// SuccessfulCount returns the number of entries with status completed.
func (l *Ledger) SuccessfulCount() int {
	n := 0
	for _, e := range l.entries {
		if e.status == models.TaskStatusCompleted {
			n++
		}
	}
	return n
}

// InitializedCount returns the number of distinct identifiers ever initialized,
// retired ones included.
func (l *Ledger) InitializedCount() int {
	return l.initialized
}
