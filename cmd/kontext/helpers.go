package main

import (
	"fmt"
	"os"
	"time"

	"kontext/internal/config"
	"kontext/internal/llm"
	"kontext/internal/logging"
	"kontext/internal/storage"
)

// mustGetRepoRoot returns the current working directory or exits
func mustGetRepoRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get current directory: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// mustLoadConfig loads and validates the configuration or exits
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLoggerFromConfig builds the process logger from config
func newLoggerFromConfig(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

// mustOpenRepository opens the database or exits. Callers must Close
// the returned DB.
func mustOpenRepository(repoRoot string, logger *logging.Logger) (*storage.DB, *storage.Repository) {
	db, err := storage.Open(repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'kontext init' first.")
		os.Exit(1)
	}
	return db, storage.NewRepository(db)
}

// mustNewCompleter builds the Anthropic completer or exits when no API
// key is configured
func mustNewCompleter(cfg *config.Config) llm.Completer {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: no API key configured.")
		fmt.Fprintln(os.Stderr, "Set KONTEXT_API_KEY or ANTHROPIC_API_KEY in the environment.")
		os.Exit(1)
	}
	return llm.NewAnthropic(cfg.APIKey, cfg.Extraction.Model)
}

// retryPolicyFromConfig derives the LLM retry policy from config
func retryPolicyFromConfig(cfg *config.Config) llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: cfg.Extraction.MaxRetries,
		BaseDelay:   time.Duration(cfg.Extraction.RetryBaseDelay) * time.Millisecond,
	}
}
