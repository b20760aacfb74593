package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "deskpilot",
	Short: "Goal-driven desktop automation",
	Long: `deskpilot breaks a natural-language goal into PC-operable tasks and
carries them out one at a time. For each task it looks at the screen, has the
model write a script, runs it, and checks the result on a fresh screenshot.

Tasks that keep failing are broken down further; tasks that keep erroring are
reported by email and dropped.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default config/settings.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
