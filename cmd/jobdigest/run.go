package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/keywords"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one digest and exit",
	Long: "Queries every source for every keyword, writes the CSV snapshot, records the " +
		"postings in history and sends the digest.",
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, creds := mustLoad(logger, true)

	kws, err := keywords.Load(cfg.KeywordsFile)
	if err != nil {
		logger.Error("failed to load keywords", "error", err)
		os.Exit(1)
	}
	if len(kws) == 0 {
		logger.Error("no keywords configured", "file", cfg.KeywordsFile)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, closeStore, err := buildRunner(ctx, cfg, creds, logger)
	if err != nil {
		logger.Error("failed to set up run", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rep, err := runner.Run(ctx, kws)
	if err != nil {
		logger.Error("run failed", "error", err)
		closeStore()
		os.Exit(1)
	}

	logger.Info("digest sent",
		"subject", rep.Digest.Subject,
		"total", rep.Digest.Total,
		"new", rep.Digest.New,
		"csv", cfg.Output.CSVPath,
	)
	return nil
}
