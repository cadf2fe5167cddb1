package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kontext/internal/query"
)

var queryFormat string

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer a question from stored decisions",
	Long: `Finds decisions relevant to a question and synthesizes an answer with
source links.

Examples:
  kontext query "why did we choose PostgreSQL?"
  kontext query "how should I add caching?" --format json`,
	Args: cobra.ExactArgs(1),
	Run:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFormat, "format", "text", "Output format (json, text)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	format := validFormat(queryFormat)
	question := args[0]

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	completer := mustNewCompleter(cfg)
	engine := query.NewEngine(repo, completer, logger, retryPolicyFromConfig(cfg))

	result, err := engine.Answer(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if format == FormatJSON {
		printJSON(result)
		return
	}
	fmt.Println(result.Text())
}
