package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/keywords"
	"github.com/amishk599/jobdigest/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the digest daemon",
	Long:  "Runs one digest immediately and then every schedule.interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, creds := mustLoad(logger, true)

	logger.Info("config loaded",
		"interval", cfg.Schedule.Interval.String(),
		"keywords_file", cfg.KeywordsFile,
		"history", cfg.History.Path,
		"workers", cfg.Fanout.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, closeStore, err := buildRunner(ctx, cfg, creds, logger)
	if err != nil {
		logger.Error("failed to set up run", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	loadKeywords := func() ([]string, error) { return keywords.Load(cfg.KeywordsFile) }

	sched := scheduler.NewScheduler(runner, loadKeywords, cfg.Schedule.Interval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		closeStore()
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
