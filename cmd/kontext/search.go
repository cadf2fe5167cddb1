package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kontext/internal/model"
	"kontext/internal/query"
	"kontext/internal/storage"
)

var (
	searchLearnings bool
	searchCategory  string
	searchLimit     int
	searchFormat    string
)

var searchCmd = &cobra.Command{
	Use:   "search <terms>",
	Short: "Full-text search over stored decisions or learnings",
	Long: `Searches decision summaries, reasoning, and alternatives (or learning
summaries, details, and components with --learnings).

Examples:
  kontext search "postgres migration"
  kontext search "race condition" --learnings --category bug_fix`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchLearnings, "learnings", false, "Search learnings instead of decisions")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Learning category filter (bug_fix, gotcha, implementation)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format (json, text)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	format := validFormat(searchFormat)

	ftsQuery := query.QuestionFTSQuery(args[0])
	if ftsQuery == "" {
		fmt.Fprintln(os.Stderr, "Error: no searchable terms in query")
		os.Exit(1)
	}

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	if searchLearnings {
		category := model.Category(searchCategory)
		if searchCategory != "" && !model.IsValidCategory(searchCategory) {
			fmt.Fprintf(os.Stderr, "Error: invalid category %q\n", searchCategory)
			os.Exit(1)
		}
		results, err := repo.SearchLearnings(ftsQuery, category, searchLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if format == FormatJSON {
			printJSON(results)
			return
		}
		printLearnings(results)
		return
	}

	results, err := repo.SearchDecisions(ftsQuery, searchLimit)
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

func printDecisions(decisions []storage.DecisionRecord) {
	if len(decisions) == 0 {
		fmt.Println("No decisions found.")
		return
	}
	for _, d := range decisions {
		fmt.Printf("[%s] %s\n", d.Confidence, d.Summary)
		if d.Reasoning != "" {
			fmt.Printf("  %s\n", d.Reasoning)
		}
		if len(d.Alternatives) > 0 {
			fmt.Printf("  Alternatives: %s\n", strings.Join(d.Alternatives, ", "))
		}
		if d.SourceURL != "" {
			fmt.Printf("  %s\n", d.SourceURL)
		}
		fmt.Println()
	}
}

func printLearnings(learnings []storage.LearningRecord) {
	if len(learnings) == 0 {
		fmt.Println("No learnings found.")
		return
	}
	for _, l := range learnings {
		fmt.Printf("[%s] %s\n", l.Category, l.Summary)
		if l.Detail != "" {
			fmt.Printf("  %s\n", l.Detail)
		}
		if len(l.Components) > 0 {
			fmt.Printf("  Components: %s\n", strings.Join(l.Components, ", "))
		}
		fmt.Println()
	}
}
