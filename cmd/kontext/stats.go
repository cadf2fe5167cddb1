package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	Run:   runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "text", "Output format (json, text)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	format := validFormat(statsFormat)

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	stats, err := repo.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if format == FormatJSON {
		printJSON(stats)
		return
	}

	fmt.Printf("Sources:    %d (pr: %d, adr: %d, doc: %d, session: %d)\n",
		stats.TotalSources, stats.PRSources, stats.ADRSources, stats.DocSources, stats.SessionSources)
	fmt.Printf("Decisions:  %d\n", stats.TotalDecisions)
	fmt.Printf("Entities:   %d\n", stats.UniqueEntities)
	fmt.Printf("Learnings:  %d (bug_fix: %d, gotcha: %d, implementation: %d)\n",
		stats.TotalLearnings, stats.BugFixes, stats.Gotchas, stats.Implementations)
}
