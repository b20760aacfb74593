// Package config handles configuration loading and management for deskpilot.
// It reads config/settings.yaml (or an explicit file), a project-level
// .deskpilot.yaml override, and DESKPILOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator/policy"
	"github.com/ShayCichocki/deskpilot/internal/script"
)

// ErrMissingGoal is returned by Validate when no goal is configured.
var ErrMissingGoal = errors.New("no goal configured")

// Config holds all configuration for deskpilot.
type Config struct {
	Goal                       string `mapstructure:"goal"`
	RetryAttempts              int    `mapstructure:"retry_attempts"`
	NotificationRecipientEmail string `mapstructure:"notification_recipient_email"`

	Anthropic     AnthropicConfig     `mapstructure:"anthropic"`
	Decomposition DecompositionConfig `mapstructure:"decomposition"`
	Execution     ExecutionConfig     `mapstructure:"execution"`
	SMTP          SMTPConfig          `mapstructure:"smtp"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	State         StateConfig         `mapstructure:"state"`
	Prompts       PromptsConfig       `mapstructure:"prompts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	MaxTokens  int64  `mapstructure:"max_tokens"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// DecompositionConfig bounds the task tree.
type DecompositionConfig struct {
	MaxDepth             int `mapstructure:"max_depth"`
	MaxBreakdownAttempts int `mapstructure:"max_breakdown_attempts"`
}

// ExecutionConfig holds task execution settings.
type ExecutionConfig struct {
	MaxTasks           int           `mapstructure:"max_tasks"`
	ScriptAttempts     int           `mapstructure:"script_attempts"`
	ScriptRetryDelay   time.Duration `mapstructure:"script_retry_delay"`
	ScriptTimeout      time.Duration `mapstructure:"script_timeout"`
	ScriptLanguage     string        `mapstructure:"script_language"`
	ScriptDir          string        `mapstructure:"script_dir"`
	ScreenshotDir      string        `mapstructure:"screenshot_dir"`
	ScreenshotCommand  string        `mapstructure:"screenshot_command"`
	OnExhaustedFailure string        `mapstructure:"on_exhausted_failure"`
	OnExhaustedError   string        `mapstructure:"on_exhausted_error"`
}

// SMTPConfig holds mail settings for failure notifications.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled reports whether a mail server is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns the host:port of the mail server.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	File    string `mapstructure:"file"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// StateConfig holds run journal settings.
type StateConfig struct {
	Dir    string `mapstructure:"dir"`
	DBPath string `mapstructure:"db_path"`
}

// PromptsConfig holds prompt template settings.
type PromptsConfig struct {
	// Dir optionally overrides the embedded templates.
	Dir string `mapstructure:"dir"`
}

// DefaultConfigPath is the settings file read when no path is given.
const DefaultConfigPath = "config/settings.yaml"

// ProjectConfigName is the per-project override file.
const ProjectConfigName = ".deskpilot.yaml"

// Load loads configuration.
// Precedence (highest to lowest):
// 1. Environment variables (DESKPILOT_*, ANTHROPIC_API_KEY)
// 2. Project config (.deskpilot.yaml in current directory or parent)
// 3. Settings file (path, or config/settings.yaml, or the user config dir)
// 4. Built-in defaults
//
// A missing settings file is not an error unless path was given explicitly.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Dir(DefaultConfigPath))
		v.AddConfigPath(getUserConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading settings: %w", err)
			}
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config: %w", err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// newViper returns a viper instance with defaults and environment bindings.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DESKPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in values that typically hold secrets or addresses.
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.SMTP.Username = expandEnv(cfg.SMTP.Username)
	cfg.SMTP.Password = expandEnv(cfg.SMTP.Password)
	cfg.NotificationRecipientEmail = expandEnv(cfg.NotificationRecipientEmail)

	return cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("goal", "")
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("notification_recipient_email", "")

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("decomposition.max_depth", 6)
	v.SetDefault("decomposition.max_breakdown_attempts", 5)

	v.SetDefault("execution.max_tasks", 200)
	v.SetDefault("execution.script_attempts", 5)
	v.SetDefault("execution.script_retry_delay", "1s")
	v.SetDefault("execution.script_timeout", "2m")
	v.SetDefault("execution.script_language", "python")
	v.SetDefault("execution.script_dir", "data/scripts")
	v.SetDefault("execution.screenshot_dir", "data/screenshots")
	v.SetDefault("execution.screenshot_command", "")
	v.SetDefault("execution.on_exhausted_failure", string(policy.ActionRedecompose))
	v.SetDefault("execution.on_exhausted_error", string(policy.ActionNotify))

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "deskpilot@localhost")

	v.SetDefault("logging.file", "logs/execution.log")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)

	v.SetDefault("state.dir", ".deskpilot")
	v.SetDefault("state.db_path", ".deskpilot/state.db")

	v.SetDefault("prompts.dir", "")
}

// Default returns a Config with default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the configuration for values the run cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Goal) == "" {
		errs = append(errs, ErrMissingGoal)
	}
	if c.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry_attempts must be >= 0, got %d", c.RetryAttempts))
	}
	if c.Decomposition.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("decomposition.max_depth must be >= 1, got %d", c.Decomposition.MaxDepth))
	}
	if c.Decomposition.MaxBreakdownAttempts < 1 {
		errs = append(errs, fmt.Errorf("decomposition.max_breakdown_attempts must be >= 1, got %d", c.Decomposition.MaxBreakdownAttempts))
	}
	if c.Execution.MaxTasks < 1 {
		errs = append(errs, fmt.Errorf("execution.max_tasks must be >= 1, got %d", c.Execution.MaxTasks))
	}
	if c.Execution.ScriptAttempts < 1 {
		errs = append(errs, fmt.Errorf("execution.script_attempts must be >= 1, got %d", c.Execution.ScriptAttempts))
	}
	if _, err := script.ParseLanguage(c.Execution.ScriptLanguage); err != nil {
		errs = append(errs, fmt.Errorf("execution.script_language: %w", err))
	}
	if _, err := policy.ParseAction(c.Execution.OnExhaustedFailure); err != nil {
		errs = append(errs, fmt.Errorf("execution.on_exhausted_failure: %w", err))
	}
	if _, err := policy.ParseAction(c.Execution.OnExhaustedError); err != nil {
		errs = append(errs, fmt.Errorf("execution.on_exhausted_error: %w", err))
	}
	if c.SMTP.Enabled() && c.NotificationRecipientEmail == "" {
		errs = append(errs, errors.New("smtp.host is set but notification_recipient_email is empty"))
	}
	if c.SMTP.Enabled() && (c.SMTP.Port < 1 || c.SMTP.Port > 65535) {
		errs = append(errs, fmt.Errorf("smtp.port out of range: %d", c.SMTP.Port))
	}

	return errors.Join(errs...)
}

// Policy returns the engine policy described by the configuration.
func (c *Config) Policy() (*policy.Config, error) {
	onFailure, err := policy.ParseAction(c.Execution.OnExhaustedFailure)
	if err != nil {
		return nil, fmt.Errorf("on_exhausted_failure: %w", err)
	}
	onError, err := policy.ParseAction(c.Execution.OnExhaustedError)
	if err != nil {
		return nil, fmt.Errorf("on_exhausted_error: %w", err)
	}

	p := policy.Default()
	p.Retry.MaxRetries = c.RetryAttempts
	p.Exhaustion.OnFailure = onFailure
	p.Exhaustion.OnError = onError
	p.Limits.MaxTasks = c.Execution.MaxTasks
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteDefault writes a settings file with every default value to path.
// It fails if the file already exists.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	v := viper.New()
	setDefaults(v)
	v.Set("goal", "Describe what the computer should accomplish")
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// GetUserConfigPath returns the path to the user settings file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "settings.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// getUserConfigDir returns the XDG config directory for deskpilot.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "deskpilot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "deskpilot")
	}
	return filepath.Join(home, ".config", "deskpilot")
}

// findProjectConfig searches for .deskpilot.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
