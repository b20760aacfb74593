// Package agent executes a single leaf task against the desktop: it looks at
// the screen, has the model write a script, runs it, and checks the result.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator"
	"github.com/ShayCichocki/deskpilot/internal/screenshot"
	"github.com/ShayCichocki/deskpilot/internal/script"
	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// Oracle answers the execution and completion questions for a task.
type Oracle interface {
	// ChooseMethod returns the execution method tag for task, e.g. "Python_file".
	ChooseMethod(ctx context.Context, screenshot []byte, task string) (string, error)
	// GenerateCode returns source code in language that performs task.
	GenerateCode(ctx context.Context, screenshot []byte, task, language string) (string, error)
	// IsComplete reports whether screenshot shows task as done.
	IsComplete(ctx context.Context, screenshot []byte, task string) (bool, error)
}

// ScriptStore persists a generated script and returns its path.
type ScriptStore interface {
	Write(id models.TaskID, l script.Language, content string) (string, error)
}

// ScriptRunner runs a script file, retrying internally.
type ScriptRunner interface {
	Run(ctx context.Context, path string, l script.Language) error
}

// ExecutorConfig contains the collaborators of an Executor. All fields
// except Logger are required.
type ExecutorConfig struct {
	Screenshots screenshot.Capturer
	Oracle      Oracle
	Store       ScriptStore
	Runner      ScriptRunner
	Language    script.Language
	Logger      *slog.Logger
}

// Executor performs one attempt of a leaf task.
//
// Screenshot failures, an unsupported method, and a script that never runs
// cleanly are plain failures (false, nil). Oracle and storage errors are
// returned as errors.
type Executor struct {
	screenshots screenshot.Capturer
	oracle      Oracle
	store       ScriptStore
	runner      ScriptRunner
	language    script.Language
	logger      *slog.Logger
}

var _ orchestrator.TaskExecutor = (*Executor)(nil)

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	language := cfg.Language
	if language == "" {
		language = script.Python
	}
	return &Executor{
		screenshots: cfg.Screenshots,
		oracle:      cfg.Oracle,
		store:       cfg.Store,
		runner:      cfg.Runner,
		language:    language,
		logger:      logger,
	}
}

// Execute runs one attempt of task.
func (e *Executor) Execute(ctx context.Context, task models.Task) (bool, error) {
	log := e.logger.With("task_id", task.ID)

	before, err := e.capture(ctx)
	if err != nil {
		log.Error("screenshot capture failed", "error", err)
		return false, nil
	}

	method, err := e.oracle.ChooseMethod(ctx, before, task.Description)
	if err != nil {
		return false, fmt.Errorf("choose method: %w", err)
	}
	if method != e.language.MethodTag() {
		log.Error("unsupported execution method", "method", method, "supported", e.language.MethodTag())
		return false, nil
	}

	code, err := e.oracle.GenerateCode(ctx, before, task.Description, string(e.language))
	if err != nil {
		return false, fmt.Errorf("generate code: %w", err)
	}
	content, err := script.Generate(code, e.language)
	if err != nil {
		return false, err
	}
	path, err := e.store.Write(task.ID, e.language, content)
	if err != nil {
		return false, fmt.Errorf("store script: %w", err)
	}

	if err := e.runner.Run(ctx, path, e.language); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Warn("task execution failed", "script", path, "error", err)
		return false, nil
	}

	after, err := e.capture(ctx)
	if err != nil {
		log.Error("screenshot capture failed", "error", err)
		return false, nil
	}

	done, err := e.oracle.IsComplete(ctx, after, task.Description)
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	if !done {
		log.Warn("task execution failed", "reason", "completion check negative")
		return false, nil
	}

	log.Info("task executed successfully")
	return true, nil
}

func (e *Executor) capture(ctx context.Context) ([]byte, error) {
	path, err := e.screenshots.Capture(ctx)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	return data, nil
}
