package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ShayCichocki/deskpilot/internal/exec"
)

// ErrRunExhausted is returned when every run attempt failed.
var ErrRunExhausted = errors.New("script failed on every attempt")

const (
	// DefaultAttempts is the number of runs tried before giving up.
	DefaultAttempts = 5
	// DefaultTimeout bounds a single run.
	DefaultTimeout = 2 * time.Minute
)

// RetryRunner runs a script file, retrying failed runs a bounded number of times.
type RetryRunner struct {
	runner   exec.CommandRunner
	attempts int
	delay    time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// RunnerOption configures a RetryRunner.
type RunnerOption func(*RetryRunner)

// WithAttempts sets the number of attempts. Values below 1 are ignored.
func WithAttempts(n int) RunnerOption {
	return func(r *RetryRunner) {
		if n >= 1 {
			r.attempts = n
		}
	}
}

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) RunnerOption {
	return func(r *RetryRunner) { r.delay = d }
}

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *RetryRunner) { r.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *RetryRunner) { r.logger = l }
}

// NewRetryRunner creates a RetryRunner using runner for process execution.
func NewRetryRunner(runner exec.CommandRunner, opts ...RunnerOption) *RetryRunner {
	r := &RetryRunner{
		runner:   runner,
		attempts: DefaultAttempts,
		delay:    time.Second,
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attempts returns the configured attempt count.
func (r *RetryRunner) Attempts() int {
	return r.attempts
}

// Command returns the interpreter invocation for a script at path.
func (r *RetryRunner) Command(path string, l Language) (string, []string, error) {
	switch l {
	case Python:
		for _, name := range []string{"python3", "python"} {
			if _, err := r.runner.LookPath(name); err == nil {
				return name, []string{path}, nil
			}
		}
		return "", nil, fmt.Errorf("no python interpreter found in PATH")
	case Batch:
		return "cmd", []string{"/c", path}, nil
	case Shell:
		return "bash", []string{path}, nil
	}
	return "", nil, fmt.Errorf("run script: %w: %q", ErrUnsupportedLanguage, l)
}

// Run executes the script until one run exits successfully. A missing
// interpreter fails immediately without retrying.
func (r *RetryRunner) Run(ctx context.Context, path string, l Language) error {
	name, args, err := r.Command(path, l)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		output, err := r.runOnce(ctx, name, args)
		if err == nil {
			r.logger.Debug("script succeeded", "path", path, "attempt", attempt)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		lastErr = err
		r.logger.Warn("script run failed",
			"path", path,
			"attempt", attempt,
			"max_attempts", r.attempts,
			"error", err,
			"output", tail(string(output), 500))

		if attempt < r.attempts && r.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRunExhausted, r.attempts, lastErr)
}

func (r *RetryRunner) runOnce(ctx context.Context, name string, args []string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.runner.Run(ctx, "", name, args...)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
