package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kontext/internal/config"
	"kontext/internal/logging"
	"kontext/internal/storage"
)

var (
	initRepo  string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kontext in the current repository",
	Long:  "Creates a .kontext/ directory with default configuration and an empty database",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initRepo, "repo", "", "Repository identifier (owner/repo) stamped on extracted sources")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .kontext directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: "human",
		Level:  "info",
	})

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	kontextDir := filepath.Join(cwd, ".kontext")
	if _, statErr := os.Stat(kontextDir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success
			fmt.Println("kontext already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(kontextDir, "config.json"))
			fmt.Println("\nRun 'kontext init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(kontextDir); removeErr != nil {
			return fmt.Errorf("failed to remove existing .kontext directory: %w", removeErr)
		}
		logger.Info("Removed existing .kontext directory", nil)
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = "."
	cfg.Repo = initRepo

	if err := cfg.Save(cwd); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Opening the database creates the schema
	db, err := storage.Open(cwd, logger)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	fmt.Println("kontext initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", filepath.Join(kontextDir, "config.json"))
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'kontext extract adrs' to extract decision records")
	fmt.Println("  2. Run 'kontext query \"why did we choose X?\"'")

	return nil
}
