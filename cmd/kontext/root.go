package main

import (
	"kontext/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kontext",
	Short: "kontext - engineering decision memory",
	Long: `kontext extracts engineering decisions and learnings from a repository's
decision history (PRs, ADRs, docs, AI-agent session transcripts) into a local
queryable knowledge base, then answers questions and validates proposed
approaches against it.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("kontext version {{.Version}}\n")
}
