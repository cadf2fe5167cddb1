// Package contextfile renders stored decisions into a context file for
// AI coding agents. Agents load CLAUDE.md or .cursorrules automatically
// as system context, so the rendered file gives them the team's
// decision history without a query round-trip.
package contextfile

import (
	"fmt"
	"os"
	"strings"

	"kontext/internal/model"
	"kontext/internal/storage"
)

// Supported output formats
const (
	FormatClaude  = "claude"
	FormatCursor  = "cursor"
	FormatGeneric = "generic"
)

// IsValidFormat reports whether format names a supported output format
func IsValidFormat(format string) bool {
	switch format {
	case FormatClaude, FormatCursor, FormatGeneric:
		return true
	}
	return false
}

// DefaultOutput returns the conventional file name for a format
func DefaultOutput(format string) string {
	switch format {
	case FormatCursor:
		return ".cursorrules"
	case FormatGeneric:
		return "DECISIONS.md"
	default:
		return "CLAUDE.md"
	}
}

func header(format string) string {
	switch format {
	case FormatCursor:
		return "# Project Engineering Decisions"
	case FormatGeneric:
		return "# Engineering Decisions"
	default:
		return "# Engineering Decisions Context"
	}
}

// Generate renders the full context document for the given format
func Generate(repo *storage.Repository, format string) (string, error) {
	decisions, err := repo.AllDecisions("", "", 0)
	if err != nil {
		return "", fmt.Errorf("failed to load decisions: %w", err)
	}

	var b strings.Builder
	b.WriteString(header(format))
	b.WriteString("\n\n")

	if len(decisions) == 0 {
		b.WriteString("No engineering decisions extracted yet. ")
		b.WriteString("Run 'kontext extract' to build the knowledge base.\n")
		return b.String(), nil
	}

	b.WriteString("This file is generated from the team's extracted decision history. ")
	b.WriteString("Follow these decisions unless they are explicitly revisited.\n")

	entities, err := repo.Entities()
	if err != nil {
		return "", fmt.Errorf("failed to load entities: %w", err)
	}
	writeEntitySection(&b, "## Technology Stack", entities, model.EntityTechnology, model.EntityLibrary)
	writeEntitySection(&b, "## Architecture Patterns", entities, model.EntityPattern)

	b.WriteString("\n## Decisions\n")
	writeConfidenceGroup(&b, "### High Confidence", decisions, model.ConfidenceHigh)
	writeConfidenceGroup(&b, "### Medium Confidence", decisions, model.ConfidenceMedium)
	writeConfidenceGroup(&b, "### Low Confidence", decisions, model.ConfidenceLow)

	stats, err := repo.Stats()
	if err != nil {
		return "", fmt.Errorf("failed to load stats: %w", err)
	}
	b.WriteString("\n---\n")
	b.WriteString(fmt.Sprintf("Generated by kontext from %d sources: %d decisions, %d entities.\n",
		stats.TotalSources, stats.TotalDecisions, stats.UniqueEntities))

	return b.String(), nil
}

// WriteFile renders the document and writes it to path
func WriteFile(repo *storage.Repository, path, format string) error {
	content, err := Generate(repo, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeEntitySection(b *strings.Builder, heading string, entities []storage.EntityCount, types ...model.EntityType) {
	wanted := make(map[model.EntityType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	var lines []string
	for _, e := range entities {
		if !wanted[e.Type] {
			continue
		}
		if e.DecisionCount == 1 {
			lines = append(lines, fmt.Sprintf("- %s (1 decision)", e.Name))
		} else {
			lines = append(lines, fmt.Sprintf("- %s (%d decisions)", e.Name, e.DecisionCount))
		}
	}
	if len(lines) == 0 {
		return
	}

	b.WriteString("\n" + heading + "\n")
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
}

func writeConfidenceGroup(b *strings.Builder, heading string, decisions []storage.DecisionRecord, confidence model.Confidence) {
	var group []storage.DecisionRecord
	for _, d := range decisions {
		if d.Confidence == confidence {
			group = append(group, d)
		}
	}
	if len(group) == 0 {
		return
	}

	b.WriteString("\n" + heading + "\n")
	for _, d := range group {
		b.WriteString(fmt.Sprintf("\n- **%s**\n", d.Summary))
		if d.Reasoning != "" {
			b.WriteString(fmt.Sprintf("  - Why: %s\n", d.Reasoning))
		}
		if len(d.Alternatives) > 0 {
			b.WriteString(fmt.Sprintf("  - Rejected: %s\n", strings.Join(d.Alternatives, ", ")))
		}
		if d.SourceURL != "" {
			b.WriteString(fmt.Sprintf("  - Source: %s\n", d.SourceURL))
		}
	}
}
