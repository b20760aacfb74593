// Package decompose turns a goal into an ordered list of PC-operable leaf tasks.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ShayCichocki/deskpilot/pkg/models"
)

var (
	// ErrMalformedResponse is returned when the oracle keeps answering a
	// breakdown request with something that is not a list of subtasks.
	ErrMalformedResponse = errors.New("malformed breakdown response")
	// ErrMaxDepth is returned when decomposition would go deeper than allowed.
	ErrMaxDepth = errors.New("maximum decomposition depth exceeded")
)

const (
	// DefaultMaxDepth bounds the number of segments in a task ID.
	DefaultMaxDepth = 6
	// DefaultMaxBreakdownAttempts bounds retries on malformed breakdowns.
	DefaultMaxBreakdownAttempts = 5
)

// Oracle judges whether a task is directly PC-operable and breaks tasks down.
type Oracle interface {
	// IsOperable reports whether the task can be performed by a single generated script.
	IsOperable(ctx context.Context, task string) (bool, error)
	// BreakDown returns finer-grained subtask descriptions in execution order.
	// A response that cannot be read as a list returns an error wrapping ErrMalformedResponse.
	BreakDown(ctx context.Context, goal string) ([]string, error)
}

// Options configures a Builder.
type Options struct {
	// MaxDepth is the deepest task ID (in segments) the builder will produce.
	MaxDepth int
	// MaxBreakdownAttempts is how many malformed breakdowns are tolerated per task.
	MaxBreakdownAttempts int
	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// Builder recursively applies an Oracle to build the flat leaf sequence.
// The traversal is depth-first pre-order, so leaves come out in execution order.
type Builder struct {
	oracle      Oracle
	maxDepth    int
	maxAttempts int
	logger      *slog.Logger
}

// New creates a Builder. Zero option values fall back to the defaults.
func New(oracle Oracle, opts Options) *Builder {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxBreakdownAttempts <= 0 {
		opts.MaxBreakdownAttempts = DefaultMaxBreakdownAttempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		oracle:      oracle,
		maxDepth:    opts.MaxDepth,
		maxAttempts: opts.MaxBreakdownAttempts,
		logger:      logger,
	}
}

// Decompose breaks a top-level goal into leaf tasks. A goal that is already
// operable is returned as a single task with models.RootID.
func (b *Builder) Decompose(ctx context.Context, goal string) ([]models.Task, error) {
	tasks, err := b.DecomposeUnder(ctx, goal, "")
	if err != nil {
		return nil, err
	}
	b.logger.Info("decomposition finished", "goal", goal, "tasks", len(tasks))
	return tasks, nil
}

// DecomposeUnder decomposes description as the node identified by id.
// The empty id denotes the implicit root.
func (b *Builder) DecomposeUnder(ctx context.Context, description string, id models.TaskID) ([]models.Task, error) {
	if id.Depth() > b.maxDepth {
		return nil, fmt.Errorf("decompose task %s: %w (max %d)", id, ErrMaxDepth, b.maxDepth)
	}

	operable, err := b.oracle.IsOperable(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("check operability of task %s: %w", displayID(id), err)
	}
	if operable {
		if id == "" {
			id = models.RootID
		}
		b.logger.Debug("task is PC-operable", "task_id", id, "description", description)
		return []models.Task{{ID: id, Description: description}}, nil
	}

	b.logger.Info("task is not PC-operable, breaking down", "task_id", displayID(id), "description", description)
	return b.expand(ctx, description, id)
}

// Split breaks a failed leaf task into finer subtasks without asking whether
// the task itself is operable. Children always get IDs derived from task.ID,
// so the failed ID is never emitted again.
func (b *Builder) Split(ctx context.Context, task models.Task) ([]models.Task, error) {
	if task.ID.Depth()+1 > b.maxDepth {
		return nil, fmt.Errorf("split task %s: %w (max %d)", task.ID, ErrMaxDepth, b.maxDepth)
	}
	b.logger.Info("re-decomposing failed task", "task_id", task.ID, "description", task.Description)
	return b.expand(ctx, task.Description, task.ID)
}

// expand breaks description down and recurses into each child.
func (b *Builder) expand(ctx context.Context, description string, id models.TaskID) ([]models.Task, error) {
	subtasks, err := b.breakDown(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("decompose task %s: %w", displayID(id), err)
	}

	var out []models.Task
	for i, subtask := range subtasks {
		leaves, err := b.DecomposeUnder(ctx, subtask, id.Child(i+1))
		if err != nil {
			return nil, err
		}
		out = append(out, leaves...)
	}
	return out, nil
}

// breakDown asks the oracle for subtasks, retrying malformed answers.
func (b *Builder) breakDown(ctx context.Context, description string) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		subtasks, err := b.oracle.BreakDown(ctx, description)
		if err == nil && len(subtasks) > 0 {
			return subtasks, nil
		}
		if err != nil && !errors.Is(err, ErrMalformedResponse) {
			return nil, fmt.Errorf("break down: %w", err)
		}
		if err == nil {
			err = fmt.Errorf("%w: empty subtask list", ErrMalformedResponse)
		}
		lastErr = err

		b.logger.Warn("breakdown response was not a task list, retrying",
			"attempt", attempt, "max_attempts", b.maxAttempts, "error", err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return nil, fmt.Errorf("break down after %d attempts: %w", b.maxAttempts, lastErr)
}

func displayID(id models.TaskID) string {
	if id == "" {
		return "(root)"
	}
	return string(id)
}
