package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/deskpilot/internal/config"
	"github.com/ShayCichocki/deskpilot/internal/control"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask a running deskpilot to stop before its next task",
	Long: `Stop writes a stop signal into the state directory. A running
"deskpilot run" finishes the task it is on and then stops.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		dir := control.SignalDir(cfg.State.Dir)
		if err := control.SendStop(dir); err != nil {
			return fmt.Errorf("send stop signal: %w", err)
		}
		printStatus(cmd.OutOrStdout(), "■", fmt.Sprintf("Stop requested (%s)", dir), color.FgYellow)
		return nil
	},
}
