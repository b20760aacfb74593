package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/deskpilot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, settings file, project
override (.deskpilot.yaml) and DESKPILOT_* environment variables are merged.

Use "deskpilot config init [path]" to write a settings file with every default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		displayConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default settings file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", color.GreenString("✓"), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// displayConfig prints the configuration values, masking secrets.
func displayConfig(w io.Writer, cfg *config.Config) {
	key, _ := config.GetAPIKey(cfg)
	password := "(not set)"
	if cfg.SMTP.Password != "" {
		password = "****"
	}

	rows := []struct{ key, value string }{
		{"goal", cfg.Goal},
		{"retry_attempts", fmt.Sprint(cfg.RetryAttempts)},
		{"notification_recipient_email", cfg.NotificationRecipientEmail},
		{"anthropic.api_key", fmt.Sprintf("%s [%s]", config.MaskAPIKey(key), config.GetAPIKeySource(cfg))},
		{"anthropic.model", cfg.Anthropic.Model},
		{"anthropic.max_tokens", fmt.Sprint(cfg.Anthropic.MaxTokens)},
		{"anthropic.use_bedrock", fmt.Sprint(cfg.Anthropic.UseBedrock)},
		{"decomposition.max_depth", fmt.Sprint(cfg.Decomposition.MaxDepth)},
		{"decomposition.max_breakdown_attempts", fmt.Sprint(cfg.Decomposition.MaxBreakdownAttempts)},
		{"execution.max_tasks", fmt.Sprint(cfg.Execution.MaxTasks)},
		{"execution.script_attempts", fmt.Sprint(cfg.Execution.ScriptAttempts)},
		{"execution.script_retry_delay", cfg.Execution.ScriptRetryDelay.String()},
		{"execution.script_timeout", cfg.Execution.ScriptTimeout.String()},
		{"execution.script_language", cfg.Execution.ScriptLanguage},
		{"execution.script_dir", cfg.Execution.ScriptDir},
		{"execution.screenshot_dir", cfg.Execution.ScreenshotDir},
		{"execution.screenshot_command", cfg.Execution.ScreenshotCommand},
		{"execution.on_exhausted_failure", cfg.Execution.OnExhaustedFailure},
		{"execution.on_exhausted_error", cfg.Execution.OnExhaustedError},
		{"smtp.host", cfg.SMTP.Host},
		{"smtp.port", fmt.Sprint(cfg.SMTP.Port)},
		{"smtp.username", cfg.SMTP.Username},
		{"smtp.password", password},
		{"smtp.from", cfg.SMTP.From},
		{"logging.file", cfg.Logging.File},
		{"logging.level", cfg.Logging.Level},
		{"logging.console", fmt.Sprint(cfg.Logging.Console)},
		{"state.dir", cfg.State.Dir},
		{"state.db_path", cfg.State.DBPath},
		{"prompts.dir", cfg.Prompts.Dir},
	}
	for _, r := range rows {
		value := r.value
		if value == "" {
			value = color.HiBlackString("(empty)")
		}
		fmt.Fprintf(w, "%s: %s\n", r.key, value)
	}

	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Fprintf(w, "\nproject override: %s\n", p)
	}
}
