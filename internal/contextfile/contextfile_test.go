package contextfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kontext/internal/logging"
	"kontext/internal/model"
	"kontext/internal/storage"
)

func setupRepo(t *testing.T) *storage.Repository {
	t.Helper()
	db, err := storage.Open(t.TempDir(), logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewRepository(db)
}

func seedRepo(t *testing.T, repo *storage.Repository) {
	t.Helper()
	now := time.Now().UTC()

	save := func(id, summary, reasoning string, alternatives []string, confidence model.Confidence, entities ...model.Entity) {
		source := model.Source{
			ID:        "pr:" + id,
			Kind:      model.SourcePR,
			Repo:      "acme/api",
			URL:       "https://github.com/acme/api/pull/" + id,
			Title:     summary,
			FetchedAt: now,
		}
		decision := model.Decision{
			ID:           id,
			SourceID:     source.ID,
			Summary:      summary,
			Reasoning:    reasoning,
			Alternatives: alternatives,
			Confidence:   confidence,
			Entities:     entities,
			ExtractedAt:  now,
		}
		if err := repo.SaveExtraction(source, []model.Decision{decision}); err != nil {
			t.Fatalf("SaveExtraction failed: %v", err)
		}
	}

	save("1", "Use FastAPI for the web framework", "Async support and auto-docs",
		[]string{"Flask", "Django"}, model.ConfidenceHigh,
		model.Entity{Name: "fastapi", Type: model.EntityTechnology})
	save("2", "Use PostgreSQL as the primary datastore", "ACID compliance needed",
		[]string{"MySQL"}, model.ConfidenceHigh,
		model.Entity{Name: "postgresql", Type: model.EntityTechnology},
		model.Entity{Name: "fastapi", Type: model.EntityTechnology})
	save("3", "Deploy on AWS ECS", "Team familiarity",
		nil, model.ConfidenceMedium,
		model.Entity{Name: "microservice", Type: model.EntityPattern})
}

func TestGenerateEmptyStore(t *testing.T) {
	repo := setupRepo(t)

	got, err := Generate(repo, FormatClaude)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(got, "No engineering decisions extracted yet") {
		t.Errorf("Expected empty-store notice, got:\n%s", got)
	}
	if !strings.Contains(got, "kontext extract") {
		t.Errorf("Expected extraction hint, got:\n%s", got)
	}
}

func TestGenerateHeaders(t *testing.T) {
	repo := setupRepo(t)
	seedRepo(t, repo)

	tests := []struct {
		format string
		want   string
	}{
		{FormatClaude, "Engineering Decisions Context"},
		{FormatCursor, "Project Engineering Decisions"},
		{FormatGeneric, "# Engineering Decisions"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := Generate(repo, tt.format)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Expected header %q in:\n%s", tt.want, got)
			}
		})
	}
}

func TestGenerateContent(t *testing.T) {
	repo := setupRepo(t)
	seedRepo(t, repo)

	got, err := Generate(repo, FormatClaude)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, want := range []string{
		// entity sections split by type
		"Technology Stack",
		"fastapi (2 decisions)",
		"postgresql (1 decision)",
		"Architecture Patterns",
		"microservice",
		// decisions grouped by confidence
		"High Confidence",
		"Medium Confidence",
		"Use FastAPI for the web framework",
		"Use PostgreSQL as the primary datastore",
		"Deploy on AWS ECS",
		// reasoning, rejected alternatives, source links
		"Async support and auto-docs",
		"Rejected: Flask, Django",
		"https://github.com/acme/api/pull/1",
		// stats footer
		"3 sources",
		"3 decisions",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in generated context:\n%s", want, got)
		}
	}

	if strings.Contains(got, "Low Confidence") {
		t.Error("Empty confidence group should be omitted")
	}
}

func TestWriteFile(t *testing.T) {
	repo := setupRepo(t)
	seedRepo(t, repo)

	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	if err := WriteFile(repo, path, FormatClaude); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(content), "Engineering Decisions Context") {
		t.Error("Written file missing header")
	}
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{FormatClaude, "CLAUDE.md"},
		{FormatCursor, ".cursorrules"},
		{FormatGeneric, "DECISIONS.md"},
	}
	for _, tt := range tests {
		if got := DefaultOutput(tt.format); got != tt.want {
			t.Errorf("DefaultOutput(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestIsValidFormat(t *testing.T) {
	for _, format := range []string{FormatClaude, FormatCursor, FormatGeneric} {
		if !IsValidFormat(format) {
			t.Errorf("IsValidFormat(%q) = false", format)
		}
	}
	if IsValidFormat("yaml") {
		t.Error("IsValidFormat(\"yaml\") = true")
	}
}
