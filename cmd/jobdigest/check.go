package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/history"
	"github.com/amishk599/jobdigest/internal/keywords"
	"github.com/amishk599/jobdigest/internal/pipeline"
)

var checkLimit int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run once, print results, exit",
	Long: "Dry run: queries every source and prints the results with their new flags. " +
		"Reads history but never writes it, writes no CSV and sends no digest.",
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntVarP(&checkLimit, "limit", "n", 50, "maximum rows to print (0 for all)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, creds := mustLoad(logger, false)

	logger.Info("check mode: history is read-only, no digest is sent")

	kws, err := keywords.Load(cfg.KeywordsFile)
	if err != nil {
		logger.Error("failed to load keywords", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources, err := buildSources(ctx, cfg, creds, newHTTPClient(), logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}
	store, closeStore, err := openHistory(cfg)
	if err != nil {
		logger.Error("failed to open history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	runner := pipeline.NewRunner(pipeline.Deps{
		Aggregator: newAggregator(cfg, sources, logger),
		Classifier: newClassifier(cfg),
		History:    history.NewReadOnlyStore(store),
		Emitter:    newEmitter(cfg),
		Logger:     logger,
	})

	rep, err := runner.Run(ctx, kws)
	if err != nil {
		logger.Error("check failed", "error", err)
		closeStore()
		os.Exit(1)
	}

	records := rep.Records
	if checkLimit > 0 && len(records) > checkLimit {
		records = records[:checkLimit]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(rep.Digest.Subject))
	if len(records) > 0 {
		fmt.Fprintln(out, renderRecords(records))
	}
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf(
		"%d unique postings, %d new, %d failed calls (showing %d)",
		len(rep.Records), len(rep.New), rep.FailedCalls, len(records),
	)))
	return nil
}
