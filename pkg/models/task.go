package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TaskStatus represents the lifecycle state of a task in the status ledger.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been initialized but has not succeeded yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusCompleted indicates an execution attempt succeeded.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the latest execution attempt failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusUnknown is reported for identifiers the ledger has never seen.
	TaskStatusUnknown TaskStatus = "unknown"
)

// Valid returns true if the status is one a ledger entry may hold.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskID is a dash-joined path of 1-based indices in the decomposition tree,
// e.g. "2-1-3". The implicit root has the empty ID.
type TaskID string

// RootID is the ID given to a goal that is operable without any breakdown.
const RootID TaskID = "1"

// Child returns the ID of the i-th (1-based) child of id.
func (id TaskID) Child(i int) TaskID {
	if id == "" {
		return TaskID(strconv.Itoa(i))
	}
	return TaskID(string(id) + "-" + strconv.Itoa(i))
}

// Depth returns the number of path segments in the ID. The root is depth 0.
func (id TaskID) Depth() int {
	if id == "" {
		return 0
	}
	return strings.Count(string(id), "-") + 1
}

// Parent returns the ID one level up, or the empty ID for top-level tasks.
func (id TaskID) Parent() TaskID {
	idx := strings.LastIndex(string(id), "-")
	if idx < 0 {
		return ""
	}
	return id[:idx]
}

// String implements fmt.Stringer.
func (id TaskID) String() string {
	return string(id)
}

// Task is a leaf of the decomposition tree. Tasks are values and are never
// modified once created.
type Task struct {
	// ID is the hierarchical identifier assigned by the builder.
	ID TaskID `json:"id"`
	// Description is the natural-language description sent to the oracles.
	Description string `json:"description"`
}

// Splice returns a new sequence in which the element at index i is replaced by
// replacement (which may be empty). The relative order of every other element
// is preserved. An out-of-range index returns a copy of seq unchanged.
func Splice(seq []Task, i int, replacement []Task) []Task {
	if i < 0 || i >= len(seq) {
		out := make([]Task, len(seq))
		copy(out, seq)
		return out
	}

	out := make([]Task, 0, len(seq)-1+len(replacement))
	out = append(out, seq[:i]...)
	out = append(out, replacement...)
	out = append(out, seq[i+1:]...)
	return out
}

// FormatTaskList renders tasks as "ID: description" lines.
func FormatTaskList(tasks []Task) []string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = fmt.Sprintf("%s: %s", t.ID, t.Description)
	}
	return lines
}
