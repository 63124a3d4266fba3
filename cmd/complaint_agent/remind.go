package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/complaint-assistant/internal/config"
	"github.com/jonathan/complaint-assistant/internal/observability"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send follow-up reminders now",
	Long:  "Run one reminder pass immediately: email every owner whose complaint has waited past the threshold.",
	RunE:  runRemind,
}

func init() {
	rootCmd.AddCommand(remindCmd)
}

func runRemind(cmd *cobra.Command, _ []string) error {
	srvCfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}
	remCfg, err := config.LoadReminder()
	if err != nil {
		return fmt.Errorf("failed to load reminder config: %w", err)
	}

	store, err := connectDB(cmd.Context(), srvCfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	scheduler, err := newScheduler(store, remCfg, srvCfg.BaseURL)
	if err != nil {
		return err
	}

	result, err := scheduler.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("reminder run failed: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintTickResult(result)
	return nil
}
