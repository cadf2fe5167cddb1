package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kontext/internal/model"
	"kontext/internal/storage"
)

var (
	learningsEntity   string
	learningsCategory string
	learningsLimit    int
	learningsFormat   string
)

var learningsCmd = &cobra.Command{
	Use:   "learnings",
	Short: "List stored learnings",
	Long: `Lists learnings extracted from coding sessions, newest first.

Examples:
  kontext learnings
  kontext learnings --category gotcha
  kontext learnings --entity redis`,
	Run: runLearnings,
}

func init() {
	learningsCmd.Flags().StringVar(&learningsEntity, "entity", "", "Only learnings tagged with this entity")
	learningsCmd.Flags().StringVar(&learningsCategory, "category", "", "Category filter (bug_fix, gotcha, implementation)")
	learningsCmd.Flags().IntVar(&learningsLimit, "limit", 20, "Maximum number of results")
	learningsCmd.Flags().StringVar(&learningsFormat, "format", "text", "Output format (json, text)")
	rootCmd.AddCommand(learningsCmd)
}

func runLearnings(cmd *cobra.Command, args []string) {
	format := validFormat(learningsFormat)

	if learningsCategory != "" && !model.IsValidCategory(learningsCategory) {
		fmt.Fprintf(os.Stderr, "Error: invalid category %q\n", learningsCategory)
		os.Exit(1)
	}

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	var results []storage.LearningRecord
	var err error
	if learningsEntity != "" {
		results, err = repo.LearningsByEntity(learningsEntity)
	} else {
		results, err = repo.RecentLearnings(learningsLimit, model.Category(learningsCategory))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if format == FormatJSON {
		printJSON(results)
		return
	}
	printLearnings(results)
}
