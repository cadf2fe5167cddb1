package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var entitiesFormat string

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List tagged entities and their decision counts",
	Run:   runEntities,
}

func init() {
	entitiesCmd.Flags().StringVar(&entitiesFormat, "format", "text", "Output format (json, text)")
	rootCmd.AddCommand(entitiesCmd)
}

func runEntities(cmd *cobra.Command, args []string) {
	format := validFormat(entitiesFormat)

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	counts, err := repo.Entities()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if format == FormatJSON {
		printJSON(counts)
		return
	}

	if len(counts) == 0 {
		fmt.Println("No entities tagged yet.")
		return
	}
	for _, ec := range counts {
		fmt.Printf("%-30s %-12s %d\n", ec.Name, ec.Type, ec.DecisionCount)
	}
}
