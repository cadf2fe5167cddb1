package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kontext/internal/model"
	"kontext/internal/storage"
)

var (
	decisionsEntity string
	decisionsKind   string
	decisionsRepo   string
	decisionsLimit  int
	decisionsFormat string
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List stored decisions",
	Long: `Lists extracted decisions, newest first.

Examples:
  kontext decisions
  kontext decisions --entity postgresql
  kontext decisions --kind adr --limit 10`,
	Run: runDecisions,
}

func init() {
	decisionsCmd.Flags().StringVar(&decisionsEntity, "entity", "", "Only decisions tagged with this entity")
	decisionsCmd.Flags().StringVar(&decisionsKind, "kind", "", "Source kind filter (pr, adr, doc, session)")
	decisionsCmd.Flags().StringVar(&decisionsRepo, "repo", "", "Repository filter (owner/repo)")
	decisionsCmd.Flags().IntVar(&decisionsLimit, "limit", 100, "Maximum number of results")
	decisionsCmd.Flags().StringVar(&decisionsFormat, "format", "text", "Output format (json, text)")
	rootCmd.AddCommand(decisionsCmd)
}

func runDecisions(cmd *cobra.Command, args []string) {
	format := validFormat(decisionsFormat)

	if decisionsKind != "" && !model.IsValidSourceKind(decisionsKind) {
		fmt.Fprintf(os.Stderr, "Error: invalid source kind %q\n", decisionsKind)
		os.Exit(1)
	}

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	var results []storage.DecisionRecord
	var err error
	if decisionsEntity != "" {
		results, err = repo.DecisionsByEntity(decisionsEntity)
	} else {
		results, err = repo.AllDecisions(decisionsRepo, model.SourceKind(decisionsKind), decisionsLimit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if format == FormatJSON {
		printJSON(results)
		return
	}
	printDecisions(results)
}
