package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/aggregator"
	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/keywords"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List enabled sources and the query plan size",
	Long:  "Reads the config and keywords file and prints each enabled source with the number of calls a run makes to it.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	kws, err := keywords.Load(cfg.KeywordsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load keywords: %v\n", err)
		os.Exit(1)
	}

	// Listing needs no secrets; empty credentials still build every client.
	sources, err := buildSources(context.Background(), cfg, config.Credentials{}, newHTTPClient(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build sources: %v\n", err)
		os.Exit(1)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-22s %-12s %s\n", "Source", "Dimensions", "Calls")
	fmt.Fprintln(out, strings.Repeat("─", 42))

	plan := aggregator.Plan(kws, sources)
	calls := make(map[string]int)
	for _, c := range plan {
		calls[c.Source.Name()]++
	}
	seen := make(map[string]bool)
	for _, s := range sources {
		if seen[s.Name()] {
			continue
		}
		seen[s.Name()] = true
		dims := len(s.Dimensions())
		if dims == 0 {
			dims = 1
		}
		fmt.Fprintf(out, "%-22s %-12d %d\n", s.Name(), dims, calls[s.Name()])
	}

	fmt.Fprintf(out, "\nTotal: %d keywords, %d sources, %d calls per run\n", len(kws), len(sources), len(plan))
	return nil
}
