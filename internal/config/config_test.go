package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator/policy"
)

// isolate moves the test into an empty directory with no user config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("ANTHROPIC_API_KEY", "")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want 3", cfg.RetryAttempts)
	}
	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model = %q", cfg.Anthropic.Model)
	}
	if cfg.Decomposition.MaxDepth != 6 || cfg.Decomposition.MaxBreakdownAttempts != 5 {
		t.Errorf("Decomposition = %+v", cfg.Decomposition)
	}
	if cfg.Execution.ScriptRetryDelay != time.Second || cfg.Execution.ScriptTimeout != 2*time.Minute {
		t.Errorf("script timing = %v / %v", cfg.Execution.ScriptRetryDelay, cfg.Execution.ScriptTimeout)
	}
	if cfg.Execution.ScriptLanguage != "python" {
		t.Errorf("ScriptLanguage = %q", cfg.Execution.ScriptLanguage)
	}
	if cfg.Logging.File != "logs/execution.log" {
		t.Errorf("Logging.File = %q", cfg.Logging.File)
	}
	if cfg.SMTP.Enabled() {
		t.Error("SMTP should be disabled by default")
	}
}

func TestLoad_NoFiles(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RetryAttempts != 3 || cfg.State.Dir != ".deskpilot" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
goal: Create a hello world web page
retry_attempts: 1
notification_recipient_email: ops@example.com
anthropic:
  api_key: sk-ant-from-file
execution:
  script_language: shell
  script_timeout: 30s
smtp:
  host: mail.example.com
  port: 2525
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Goal != "Create a hello world web page" {
		t.Errorf("Goal = %q", cfg.Goal)
	}
	if cfg.RetryAttempts != 1 {
		t.Errorf("RetryAttempts = %d, want 1", cfg.RetryAttempts)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-file" {
		t.Errorf("APIKey = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Execution.ScriptLanguage != "shell" || cfg.Execution.ScriptTimeout != 30*time.Second {
		t.Errorf("Execution = %+v", cfg.Execution)
	}
	if cfg.SMTP.Addr() != "mail.example.com:2525" {
		t.Errorf("SMTP addr = %q", cfg.SMTP.Addr())
	}
	// Unset values keep their defaults.
	if cfg.Decomposition.MaxDepth != 6 {
		t.Errorf("MaxDepth = %d, want default 6", cfg.Decomposition.MaxDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func TestLoad_SettingsDirAndProjectOverride(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, DefaultConfigPath), "goal: from settings\nretry_attempts: 2\n")
	writeFile(t, filepath.Join(dir, ProjectConfigName), "retry_attempts: 4\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Goal != "from settings" {
		t.Errorf("Goal = %q, want from settings", cfg.Goal)
	}
	if cfg.RetryAttempts != 4 {
		t.Errorf("RetryAttempts = %d, want project override 4", cfg.RetryAttempts)
	}
	if got := GetProjectConfigPath(); filepath.Base(got) != ProjectConfigName {
		t.Errorf("GetProjectConfigPath = %q", got)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, DefaultConfigPath), "retry_attempts: 2\nanthropic:\n  api_key: sk-ant-file\n")
	t.Setenv("DESKPILOT_RETRY_ATTEMPTS", "7")
	t.Setenv("DESKPILOT_EXECUTION_MAX_TASKS", "12")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RetryAttempts != 7 {
		t.Errorf("RetryAttempts = %d, want 7", cfg.RetryAttempts)
	}
	if cfg.Execution.MaxTasks != 12 {
		t.Errorf("MaxTasks = %d, want 12", cfg.Execution.MaxTasks)
	}
	if cfg.Anthropic.APIKey != "sk-ant-env" {
		t.Errorf("APIKey = %q, want env value", cfg.Anthropic.APIKey)
	}
}

func TestLoad_ExpandsReferences(t *testing.T) {
	dir := isolate(t)
	t.Setenv("TEST_SMTP_PASSWORD", "hunter2")
	t.Setenv("TEST_RECIPIENT", "me@example.com")
	writeFile(t, filepath.Join(dir, DefaultConfigPath), `
notification_recipient_email: ${TEST_RECIPIENT}
smtp:
  password: ${TEST_SMTP_PASSWORD}
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SMTP.Password != "hunter2" {
		t.Errorf("Password = %q", cfg.SMTP.Password)
	}
	if cfg.NotificationRecipientEmail != "me@example.com" {
		t.Errorf("recipient = %q", cfg.NotificationRecipientEmail)
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Goal = "Open Notepad"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero retries allowed", func(c *Config) { c.RetryAttempts = 0 }, ""},
		{"negative retries", func(c *Config) { c.RetryAttempts = -1 }, "retry_attempts"},
		{"depth", func(c *Config) { c.Decomposition.MaxDepth = 0 }, "max_depth"},
		{"breakdown attempts", func(c *Config) { c.Decomposition.MaxBreakdownAttempts = 0 }, "max_breakdown_attempts"},
		{"max tasks", func(c *Config) { c.Execution.MaxTasks = 0 }, "max_tasks"},
		{"script attempts", func(c *Config) { c.Execution.ScriptAttempts = 0 }, "script_attempts"},
		{"language", func(c *Config) { c.Execution.ScriptLanguage = "cobol" }, "script_language"},
		{"failure action", func(c *Config) { c.Execution.OnExhaustedFailure = "panic" }, "on_exhausted_failure"},
		{"error action", func(c *Config) { c.Execution.OnExhaustedError = "panic" }, "on_exhausted_error"},
		{"smtp without recipient", func(c *Config) { c.SMTP.Host = "mail" }, "notification_recipient_email"},
		{"smtp port", func(c *Config) {
			c.SMTP.Host = "mail"
			c.SMTP.Port = 70000
			c.NotificationRecipientEmail = "a@b.c"
		}, "smtp.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingGoal(t *testing.T) {
	cfg := Default()
	cfg.Decomposition.MaxDepth = 0

	err := cfg.Validate()
	if !errors.Is(err, ErrMissingGoal) {
		t.Errorf("Validate() = %v, want ErrMissingGoal", err)
	}
	// All problems are reported together.
	if !strings.Contains(err.Error(), "max_depth") {
		t.Errorf("joined error missing max_depth: %v", err)
	}
}

func TestPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.RetryAttempts = 2
	cfg.Execution.MaxTasks = 40
	cfg.Execution.OnExhaustedError = string(policy.ActionRedecompose)

	p, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy failed: %v", err)
	}
	if p.Retry.MaxRetries != 2 || p.Limits.MaxTasks != 40 {
		t.Errorf("policy = %+v", p)
	}
	if p.Exhaustion.OnFailure != policy.ActionRedecompose || p.Exhaustion.OnError != policy.ActionRedecompose {
		t.Errorf("exhaustion = %+v", p.Exhaustion)
	}

	cfg.Execution.OnExhaustedFailure = "bogus"
	if _, err := cfg.Policy(); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestWriteDefault(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config", "settings.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load written file: %v", err)
	}
	if cfg.Goal == "" {
		t.Error("written file should carry a placeholder goal")
	}
	if cfg.Execution.MaxTasks != 200 {
		t.Errorf("MaxTasks = %d, want 200", cfg.Execution.MaxTasks)
	}

	if err := WriteDefault(path); err == nil {
		t.Error("WriteDefault should refuse to overwrite an existing file")
	}
}

func TestGetUserConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if got := GetUserConfigPath(); got != filepath.Join("/tmp/xdg", "deskpilot", "settings.yaml") {
		t.Errorf("GetUserConfigPath = %q", got)
	}
}
