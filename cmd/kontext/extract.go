package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kontext/internal/adr"
	"kontext/internal/extract"
)

var (
	extractDocsPath     string
	extractSessionsPath string
	extractSessionsSkip bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract decisions from repository artifacts",
}

var extractADRsCmd = &cobra.Command{
	Use:   "adrs",
	Short: "Extract decisions from architecture decision records",
	Long: `Discovers ADR directories (docs/adr, docs/decisions, adr, ...), parses
each record deterministically, and stores the extracted decisions.
No API key required.`,
	RunE: runExtractADRs,
}

var extractDocsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Extract decisions from documentation files",
	Long: `Walks the documentation directory for markdown files and extracts
engineering decisions from each via the LLM pipeline. Requires an API key.`,
	RunE: runExtractDocs,
}

var extractSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Extract decisions and learnings from agent session transcripts",
	Long: `Walks a directory of session checkpoints (metadata.json, full.jsonl,
prompt.txt per session) and extracts both engineering decisions and
operational learnings from each transcript via the LLM pipeline.
Requires an API key.`,
	RunE: runExtractSessions,
}

func init() {
	extractDocsCmd.Flags().StringVar(&extractDocsPath, "path", "docs", "Documentation directory to walk")
	extractSessionsCmd.Flags().StringVar(&extractSessionsPath, "path", ".kontext/sessions", "Session checkpoint directory to walk")
	extractSessionsCmd.Flags().BoolVar(&extractSessionsSkip, "skip-learnings", false, "Extract decisions only")
	extractCmd.AddCommand(extractADRsCmd)
	extractCmd.AddCommand(extractDocsCmd)
	extractCmd.AddCommand(extractSessionsCmd)
	rootCmd.AddCommand(extractCmd)
}

func runExtractADRs(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	dirs := adr.FindDirectories(repoRoot)
	if len(dirs) == 0 {
		fmt.Println("No ADR directories found.")
		return nil
	}

	extracted := 0
	for _, dir := range dirs {
		records, err := adr.LoadDirectory(repoRoot, dir)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", dir, err)
		}
		for _, rec := range records {
			source, decisions := adr.ExtractDecisions(rec, cfg.Repo)
			if err := repo.SaveExtraction(source, decisions); err != nil {
				return fmt.Errorf("failed to save extraction for %s: %w", rec.Path, err)
			}
			extracted += len(decisions)
			logger.Info("Extracted decision record", map[string]interface{}{
				"path":      rec.Path,
				"decisions": len(decisions),
			})
		}
	}

	fmt.Printf("Extracted %d decisions from %d ADR directories.\n", extracted, len(dirs))
	return nil
}

func runExtractDocs(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	completer := mustNewCompleter(cfg)
	pipeline := extract.NewPipeline(completer, logger, retryPolicyFromConfig(cfg))
	ctx := context.Background()

	docs, err := collectDocs(repoRoot, extractDocsPath)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("No markdown files found under %s.\n", extractDocsPath)
		return nil
	}

	extracted := 0
	for _, doc := range docs {
		source, decisions := pipeline.ExtractDoc(ctx, doc, cfg.Repo)
		if err := repo.SaveExtraction(source, decisions); err != nil {
			return fmt.Errorf("failed to save extraction for %s: %w", doc.Path, err)
		}
		extracted += len(decisions)
	}

	fmt.Printf("Extracted %d decisions from %d documents.\n", extracted, len(docs))
	return nil
}

func runExtractSessions(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLoggerFromConfig(cfg)

	db, repo := mustOpenRepository(repoRoot, logger)
	defer db.Close()

	sessions, err := extract.LoadSessionDirs(filepath.Join(repoRoot, extractSessionsPath))
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Printf("No session checkpoints found under %s.\n", extractSessionsPath)
		return nil
	}

	completer := mustNewCompleter(cfg)
	pipeline := extract.NewPipeline(completer, logger, retryPolicyFromConfig(cfg))
	ctx := context.Background()

	decisionCount := 0
	learningCount := 0
	for _, session := range sessions {
		source, decisions := pipeline.ExtractSession(ctx, session, cfg.Repo)
		if err := repo.SaveExtraction(source, decisions); err != nil {
			return fmt.Errorf("failed to save session %s: %w", source.ID, err)
		}
		decisionCount += len(decisions)

		if extractSessionsSkip {
			continue
		}
		learnSource, learnings := pipeline.ExtractLearnings(ctx, session, cfg.Repo)
		if err := repo.SaveLearningExtraction(learnSource, learnings); err != nil {
			return fmt.Errorf("failed to save learnings for %s: %w", learnSource.ID, err)
		}
		learningCount += len(learnings)
	}

	fmt.Printf("Extracted %d decisions and %d learnings from %d sessions.\n",
		decisionCount, learningCount, len(sessions))
	return nil
}

// collectDocs walks docsDir for markdown files, skipping ADR
// directories (those are handled by 'extract adrs')
func collectDocs(repoRoot, docsDir string) ([]extract.DocItem, error) {
	adrDirs := make(map[string]bool)
	for _, d := range adr.FindDirectories(repoRoot) {
		adrDirs[filepath.Join(repoRoot, d)] = true
	}

	root := filepath.Join(repoRoot, docsDir)
	var docs []extract.DocItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if adrDirs[path] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		rel, relErr := filepath.Rel(repoRoot, path)
		if relErr != nil {
			rel = path
		}
		docs = append(docs, extract.DocItem{
			Path:    rel,
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to walk %s: %w", docsDir, err)
	}
	return docs, nil
}
