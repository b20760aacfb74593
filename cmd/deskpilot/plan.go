package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [goal]",
	Short: "Print the task list a goal decomposes into",
	Long: `Plan asks the model to decompose the goal and prints the resulting
PC-operable task list with identifiers. Nothing is executed and no run is
recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer logger.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		p, err := newPlanner(cfg, logger.Logger)
		if err != nil {
			return err
		}
		tasks, err := p.builder.Decompose(ctx, cfg.Goal)
		if err != nil {
			return fmt.Errorf("decompose goal: %w", err)
		}

		printTaskList(cmd.OutOrStdout(), fmt.Sprintf("Task list for %q:", cfg.Goal), tasks)
		return nil
	},
}
