package state

import (
	"database/sql"
	"fmt"
	"time"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunStopped   RunStatus = "stopped"
)

// Run is one execution of a goal.
type Run struct {
	ID         string     `json:"id"`
	Goal       string     `json:"goal"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Successful int        `json:"successful"`
	Total      int        `json:"total"`
	Summary    string     `json:"summary"`
}

// TaskEvent is one recorded engine event.
type TaskEvent struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Type        string    `json:"type"`
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	Attempt     int       `json:"attempt"`
	Message     string    `json:"message"`
	Error       string    `json:"error"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRun inserts a new run. An empty status is stored as running.
func (db *DB) CreateRun(r *Run) error {
	if r.Status == "" {
		r.Status = RunRunning
	}
	_, err := db.Exec(`
		INSERT INTO runs (id, goal, status, started_at)
		VALUES (?, ?, ?, ?)
	`, r.ID, r.Goal, string(r.Status), formatTime(r.StartedAt))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil, nil if the run does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, goal, status, started_at, finished_at, successful, total, summary
		FROM runs WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// FinishRun records the outcome of a run.
func (db *DB) FinishRun(id string, status RunStatus, successful, total int, summary string) error {
	result, err := db.Exec(`
		UPDATE runs SET status = ?, finished_at = ?, successful = ?, total = ?, summary = ?
		WHERE id = ?
	`, string(status), formatTime(time.Now()), successful, total, summary, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %s not found", id)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT id, goal, status, started_at, finished_at, successful, total, summary
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run, or nil if there is none.
func (db *DB) LatestRun() (*Run, error) {
	runs, err := db.ListRuns(1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var status, startedAt string
	var finishedAt sql.NullString
	if err := s.Scan(&r.ID, &r.Goal, &status, &startedAt, &finishedAt, &r.Successful, &r.Total, &r.Summary); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	var err error
	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, fmt.Errorf("run %s finished_at: %w", r.ID, err)
	}
	return &r, nil
}

// AddEvent appends an event to a run.
func (db *DB) AddEvent(e *TaskEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	result, err := db.Exec(`
		INSERT INTO task_events (run_id, type, task_id, description, attempt, message, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Type, e.TaskID, e.Description, e.Attempt, e.Message, e.Error, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// ListEvents returns the events of a run in the order they were recorded.
func (db *DB) ListEvents(runID string) ([]TaskEvent, error) {
	rows, err := db.Query(`
		SELECT id, run_id, type, task_id, description, attempt, message, error, created_at
		FROM task_events WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []TaskEvent
	for rows.Next() {
		var e TaskEvent
		var createdAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Type, &e.TaskID, &e.Description, &e.Attempt, &e.Message, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("event %d created_at: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
