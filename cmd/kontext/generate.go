package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kontext/internal/contextfile"
)

var (
	generateOutput string
	generateFormat string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a context file for AI coding agents",
	Long: `Renders the extracted decision history into a context file that AI
agents load automatically: CLAUDE.md (claude), .cursorrules (cursor),
or a generic markdown document (generic).`,
	Run: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file path (defaults per format)")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", contextfile.FormatClaude, "Output format (claude, cursor, generic)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	if !contextfile.IsValidFormat(generateFormat) {
		fmt.Fprintf(os.Stderr, "Invalid format %q (want claude, cursor, or generic)\n", generateFormat)
		os.Exit(1)
	}

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	output := generateOutput
	if output == "" {
		output = contextfile.DefaultOutput(generateFormat)
	}
	path := output
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, output)
	}

	if err := contextfile.WriteFile(repo, path, generateFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stats, err := repo.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", output)
	fmt.Printf("  %d decisions, %d entities\n", stats.TotalDecisions, stats.UniqueEntities)
}
