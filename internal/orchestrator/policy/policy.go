// Package policy defines configurable policy parameters for the execution engine.
// It centralizes the retry budget, task limits and the choice of what happens
// to a task that has exhausted its retries.
package policy

import "fmt"

// Action is what the engine does with a task whose retries are exhausted.
type Action string

const (
	// ActionRedecompose replaces the task in place by finer subtasks.
	ActionRedecompose Action = "redecompose"
	// ActionNotify sends a failure notification and drops the task.
	ActionNotify Action = "notify"
)

// ParseAction parses an action name as it appears in configuration.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionRedecompose, ActionNotify:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown exhaustion action %q (want %q or %q)", s, ActionRedecompose, ActionNotify)
	}
}

// Config contains all configurable policy parameters for the engine.
type Config struct {
	// Retry controls the per-task retry budget.
	Retry RetryPolicy

	// Exhaustion controls what happens when the budget runs out.
	Exhaustion ExhaustionPolicy

	// Limits bounds the total amount of work in one run.
	Limits LimitPolicy
}

// RetryPolicy controls per-task retries.
type RetryPolicy struct {
	// MaxRetries is the number of retries allowed after the first attempt.
	MaxRetries int
}

// ExhaustionPolicy maps each failure kind to an action.
// The defaults keep plain failures recoverable by re-decomposition while
// failures that raised an error are reported and abandoned.
type ExhaustionPolicy struct {
	// OnFailure applies when the last attempt was unsuccessful without an error.
	OnFailure Action

	// OnError applies when the last attempt returned an error.
	OnError Action
}

// LimitPolicy bounds total work to guarantee termination.
type LimitPolicy struct {
	// MaxTasks is the maximum number of tasks the cursor may visit in one run.
	MaxTasks int
}

// For returns the action for a failure kind.
func (p ExhaustionPolicy) For(withError bool) Action {
	if withError {
		return p.OnError
	}
	return p.OnFailure
}

// Default returns the default policy configuration.
func Default() *Config {
	return &Config{
		Retry: RetryPolicy{
			MaxRetries: 3,
		},
		Exhaustion: ExhaustionPolicy{
			OnFailure: ActionRedecompose,
			OnError:   ActionNotify,
		},
		Limits: LimitPolicy{
			MaxTasks: 200,
		},
	}
}

// Validate checks that policy values are within acceptable ranges.
// Out-of-range numbers are reset to defaults; unknown actions are an error.
func (c *Config) Validate() error {
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Limits.MaxTasks < 1 {
		c.Limits.MaxTasks = 200
	}
	if _, err := ParseAction(string(c.Exhaustion.OnFailure)); err != nil {
		return fmt.Errorf("on_exhausted_failure: %w", err)
	}
	if _, err := ParseAction(string(c.Exhaustion.OnError)); err != nil {
		return fmt.Errorf("on_exhausted_error: %w", err)
	}
	return nil
}
