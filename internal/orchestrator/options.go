package orchestrator

import (
	"log/slog"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator/policy"
)

// RequiredConfig contains the minimal required configuration for an Engine.
// All fields are required and have no defaults.
type RequiredConfig struct {
	// Executor runs a single attempt of a leaf task.
	Executor TaskExecutor
	// Splitter re-decomposes a task that exhausted its retries.
	Splitter TaskSplitter
}

// Option configures an Engine. Use With* functions to create Options.
type Option func(*engineOptions)

// engineOptions holds all optional configuration.
type engineOptions struct {
	policyConfig *policy.Config
	notifier     Notifier
	recipient    string
	stopper      Stopper
	logger       *slog.Logger
	sinks        []EventSink

	// Injectable dependencies for testing
	ledger *Ledger
}

// WithPolicy sets the policy configuration.
func WithPolicy(p *policy.Config) Option {
	return func(o *engineOptions) { o.policyConfig = p }
}

// WithNotifier sets the notifier used for abandoned tasks.
func WithNotifier(n Notifier) Option {
	return func(o *engineOptions) { o.notifier = n }
}

// WithRecipient sets the address failure notifications are sent to.
func WithRecipient(addr string) Option {
	return func(o *engineOptions) { o.recipient = addr }
}

// WithStopper sets the stop signal checked before each task.
func WithStopper(s Stopper) Option {
	return func(o *engineOptions) { o.stopper = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithEventSink adds a subscriber for engine events. May be given more than once.
func WithEventSink(s EventSink) Option {
	return func(o *engineOptions) { o.sinks = append(o.sinks, s) }
}

// WithLedger injects a status ledger. By default one is created from the
// policy's retry budget.
func WithLedger(l *Ledger) Option {
	return func(o *engineOptions) { o.ledger = l }
}
