package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kontext/internal/query"
)

var (
	validateContext string
	validateFormat  string
)

var validateCmd = &cobra.Command{
	Use:   "validate <proposed approach>",
	Short: "Check a proposed approach against stored decisions",
	Long: `Finds decisions relevant to a proposed implementation approach and
produces a structured verdict: CONFLICTS, ALIGNS, or NO_COVERAGE.

Examples:
  kontext validate "add MongoDB for session storage"
  kontext validate "switch auth to JWT" --context "new mobile API" --format json`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateContext, "context", "", "Extra background about where the approach applies")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format (json, text)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	format := validFormat(validateFormat)
	approach := args[0]

	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	completer := mustNewCompleter(cfg)
	validator := query.NewValidator(repo, completer, logger, retryPolicyFromConfig(cfg))

	result, err := validator.Validate(context.Background(), approach, validateContext)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if format == FormatJSON {
		printJSON(result)
		return
	}
	fmt.Println(formatValidationText(result))
}

func formatValidationText(result query.ValidationResult) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Verdict: %s (checked %d decisions)", result.Verdict, result.DecisionsChecked))

	if len(result.Conflicts) > 0 {
		lines = append(lines, "", "Conflicts:")
		for _, c := range result.Conflicts {
			lines = append(lines, fmt.Sprintf("  - [%s] %s", c.Severity, c.DecisionSummary))
			if c.Explanation != "" {
				lines = append(lines, "    "+c.Explanation)
			}
			if c.SourceURL != "" {
				lines = append(lines, "    "+c.SourceURL)
			}
		}
	}
	if len(result.Alignments) > 0 {
		lines = append(lines, "", "Alignments:")
		for _, a := range result.Alignments {
			lines = append(lines, "  - "+a)
		}
	}
	if len(result.Warnings) > 0 {
		lines = append(lines, "", "Warnings:")
		for _, w := range result.Warnings {
			lines = append(lines, "  - "+w)
		}
	}
	if result.Recommendation != "" {
		lines = append(lines, "", "Recommendation: "+result.Recommendation)
	}

	return strings.Join(lines, "\n")
}
