package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/deskpilot/internal/agent"
	"github.com/ShayCichocki/deskpilot/internal/api"
	"github.com/ShayCichocki/deskpilot/internal/config"
	"github.com/ShayCichocki/deskpilot/internal/control"
	"github.com/ShayCichocki/deskpilot/internal/decompose"
	"github.com/ShayCichocki/deskpilot/internal/exec"
	"github.com/ShayCichocki/deskpilot/internal/logging"
	"github.com/ShayCichocki/deskpilot/internal/notify"
	"github.com/ShayCichocki/deskpilot/internal/orchestrator"
	"github.com/ShayCichocki/deskpilot/internal/prompt"
	"github.com/ShayCichocki/deskpilot/internal/screenshot"
	"github.com/ShayCichocki/deskpilot/internal/script"
	"github.com/ShayCichocki/deskpilot/internal/state"
)

// loadConfig loads settings and applies a goal given on the command line.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if goal := goalFromArgs(args); goal != "" {
		cfg.Goal = goal
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// goalFromArgs joins positional arguments into a goal.
func goalFromArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// newLogger opens the run log. Console output is suppressed while the TUI owns the terminal.
func newLogger(cfg *config.Config, tuiActive bool) (*logging.Logger, error) {
	return logging.New(logging.Options{
		File:    cfg.Logging.File,
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console && !tuiActive,
	})
}

// newClient creates the model client from the anthropic settings.
func newClient(cfg *config.Config, logger *slog.Logger) (*api.Client, error) {
	key, err := config.GetAPIKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or anthropic.api_key, or enable anthropic.use_bedrock", err)
	}
	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        key,
		MaxTokens:     cfg.Anthropic.MaxTokens,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return client, nil
}

// planner holds what decomposition needs: the oracle and the tree builder.
type planner struct {
	client  *api.Client
	oracle  *api.Oracle
	builder *decompose.Builder
}

func newPlanner(cfg *config.Config, logger *slog.Logger) (*planner, error) {
	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	prompts, err := prompt.Load(cfg.Prompts.Dir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	oracle := api.NewOracle(client, prompts, logger)
	builder := decompose.New(oracle, decompose.Options{
		MaxDepth:             cfg.Decomposition.MaxDepth,
		MaxBreakdownAttempts: cfg.Decomposition.MaxBreakdownAttempts,
		Logger:               logger,
	})
	return &planner{client: client, oracle: oracle, builder: builder}, nil
}

// newNotifier returns an SMTP notifier when a mail server is configured,
// otherwise one that only logs.
func newNotifier(cfg *config.Config, logger *slog.Logger) orchestrator.Notifier {
	if !cfg.SMTP.Enabled() {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, nil, logger)
}

// newExecutor wires screenshots, script storage and the retrying script runner.
func newExecutor(cfg *config.Config, oracle agent.Oracle, logger *slog.Logger) (*agent.Executor, error) {
	language, err := script.ParseLanguage(cfg.Execution.ScriptLanguage)
	if err != nil {
		return nil, err
	}
	runner := exec.NewRunner()
	return agent.NewExecutor(agent.ExecutorConfig{
		Screenshots: screenshot.NewService(screenshot.Config{
			Dir:     cfg.Execution.ScreenshotDir,
			Command: cfg.Execution.ScreenshotCommand,
			Runner:  runner,
			Logger:  logger,
		}),
		Oracle: oracle,
		Store:  script.NewStore(cfg.Execution.ScriptDir),
		Runner: script.NewRetryRunner(runner,
			script.WithAttempts(cfg.Execution.ScriptAttempts),
			script.WithDelay(cfg.Execution.ScriptRetryDelay),
			script.WithTimeout(cfg.Execution.ScriptTimeout),
			script.WithLogger(logger),
		),
		Language: language,
		Logger:   logger,
	}), nil
}

// openJournal opens and migrates the run journal.
func openJournal(cfg *config.Config) (*state.DB, error) {
	path := cfg.State.DBPath
	if path == "" {
		path = state.DefaultDBPath(cfg.State.Dir)
	}
	db, err := state.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return db, nil
}

// newStopWatcher watches for "deskpilot stop". A watcher that cannot start
// is not fatal; the run simply cannot be stopped that way.
func newStopWatcher(cfg *config.Config, logger *slog.Logger) *control.Watcher {
	w, err := control.NewWatcher(control.SignalDir(cfg.State.Dir), logger)
	if err != nil {
		logger.Warn("stop signal watcher unavailable", "error", err)
		return nil
	}
	return w
}

// runStatusFor maps the engine result to a journal status.
func runStatusFor(err error) state.RunStatus {
	switch {
	case err == nil:
		return state.RunCompleted
	case errors.Is(err, orchestrator.ErrStopped):
		return state.RunStopped
	default:
		return state.RunFailed
	}
}

// notifyRunFailure sends the end-of-run failure alert. It uses a fresh
// context because the run context may already be canceled.
func notifyRunFailure(n orchestrator.Notifier, recipient string, err error) {
	n.Notify(context.Background(), recipient, "Task Execution Failed",
		fmt.Sprintf("The task execution has failed: %v", err))
}
