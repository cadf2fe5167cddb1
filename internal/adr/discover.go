package adr

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Conventional locations for decision records inside a repository
var candidateDirs = []string{
	"docs/decisions",
	"docs/adr",
	"adr",
	"decisions",
	"doc/adr",
	"doc/decisions",
}

// FindDirectories returns repository-relative directories that may
// contain decision records.
func FindDirectories(repoRoot string) []string {
	var found []string
	for _, dir := range candidateDirs {
		if info, err := os.Stat(filepath.Join(repoRoot, dir)); err == nil && info.IsDir() {
			found = append(found, dir)
		}
	}
	return found
}

var recordFilePatterns = []*regexp.Regexp{
	// ADR-001.md, adr_001-title.md
	regexp.MustCompile(`^adr[-_]?\d+`),
	// 001-some-title.md
	regexp.MustCompile(`^\d{3,4}[-_]`),
}

func isRecordFile(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".md") {
		return false
	}
	for _, pattern := range recordFilePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// LoadDirectory reads all decision-record files in a directory. Files
// that cannot be read are skipped; the rest of the directory still loads.
func LoadDirectory(repoRoot, dir string) ([]Record, error) {
	entries, err := os.ReadDir(filepath.Join(repoRoot, dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !isRecordFile(entry.Name()) {
			continue
		}

		relPath := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(repoRoot, relPath))
		if err != nil {
			continue
		}

		records = append(records, Record{
			Path:    filepath.ToSlash(relPath),
			Content: string(data),
		})
	}

	return records, nil
}
