package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show how many postings have been recorded",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, closeStore, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open history: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	ids, err := store.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read history: %v\n", err)
		closeStore()
		os.Exit(1)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d postings recorded\n", cfg.History.Path, cfg.History.Backend, len(ids))
	return nil
}
