package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kontext/internal/logging"
	"kontext/internal/model"
)

func setupTestDB(t *testing.T) (*DB, string) {
	// Create temporary directory for test database
	tmpDir, err := os.MkdirTemp("", "kontext-storage-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	logger := logging.NewDiscardLogger()

	// Open database
	db, err := Open(tmpDir, logger)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open database: %v", err)
	}

	return db, tmpDir
}

func teardownTestDB(t *testing.T, db *DB, tmpDir string) {
	if err := db.Close(); err != nil {
		t.Errorf("Failed to close database: %v", err)
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		t.Errorf("Failed to remove temp dir: %v", err)
	}
}

func testSource(id string, kind model.SourceKind) model.Source {
	return model.Source{
		ID:         id,
		Kind:       kind,
		Repo:       "acme/api",
		URL:        "https://github.com/acme/api/pull/42",
		Title:      "Switch to PostgreSQL",
		RawContent: "full text",
		FetchedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testDecision(id, sourceID string) model.Decision {
	return model.Decision{
		ID:        id,
		SourceID:  sourceID,
		Summary:   "Use PostgreSQL for the primary store",
		Reasoning: "Need transactional guarantees and mature tooling",
		Alternatives: []string{
			"MySQL",
			"MongoDB",
		},
		Entities: []model.Entity{
			{Name: "PostgreSQL", Type: model.EntityTechnology},
		},
		Confidence:   model.ConfidenceHigh,
		DecisionDate: "2026-02-28",
		ExtractedAt:  time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
	}
}

func TestDatabaseInitialization(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)

	// Verify database file was created
	dbPath := filepath.Join(tmpDir, ".kontext", "kontext.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created at %s", dbPath)
	}

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestSaveAndGetDecisions(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("pr:42", model.SourcePR)
	decision := testDecision("d1", source.ID)

	if err := repo.SaveExtraction(source, []model.Decision{decision}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	records, err := repo.AllDecisions("", "", 100)
	if err != nil {
		t.Fatalf("AllDecisions failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 decision, got %d", len(records))
	}

	rec := records[0]
	if rec.Summary != decision.Summary {
		t.Errorf("Expected summary %q, got %q", decision.Summary, rec.Summary)
	}
	if len(rec.Alternatives) != 2 || rec.Alternatives[0] != "MySQL" {
		t.Errorf("Alternatives did not round-trip: %v", rec.Alternatives)
	}
	if rec.Confidence != model.ConfidenceHigh {
		t.Errorf("Expected confidence high, got %s", rec.Confidence)
	}
	if len(rec.Entities) != 1 || rec.Entities[0].Name != "PostgreSQL" {
		t.Errorf("Entities did not round-trip: %v", rec.Entities)
	}
	if rec.SourceURL != source.URL {
		t.Errorf("Expected source URL %q, got %q", source.URL, rec.SourceURL)
	}
	if rec.SourceKind != model.SourcePR {
		t.Errorf("Expected source kind pr, got %s", rec.SourceKind)
	}
	if !rec.ExtractedAt.Equal(decision.ExtractedAt) {
		t.Errorf("Expected extracted_at %v, got %v", decision.ExtractedAt, rec.ExtractedAt)
	}
}

func TestAllDecisionsFilters(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	prSource := testSource("pr:1", model.SourcePR)
	adrSource := testSource("adr:docs/adr/001.md", model.SourceADR)
	adrSource.Repo = "acme/infra"

	if err := repo.SaveExtraction(prSource, []model.Decision{testDecision("d1", prSource.ID)}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}
	if err := repo.SaveExtraction(adrSource, []model.Decision{testDecision("d2", adrSource.ID)}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	byKind, err := repo.AllDecisions("", model.SourceADR, 100)
	if err != nil {
		t.Fatalf("AllDecisions failed: %v", err)
	}
	if len(byKind) != 1 || byKind[0].ID != "d2" {
		t.Errorf("Kind filter returned wrong decisions: %v", byKind)
	}

	byRepo, err := repo.AllDecisions("acme/api", "", 100)
	if err != nil {
		t.Fatalf("AllDecisions failed: %v", err)
	}
	if len(byRepo) != 1 || byRepo[0].ID != "d1" {
		t.Errorf("Repo filter returned wrong decisions: %v", byRepo)
	}
}

func TestSaveDecisionReplacesEntities(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("pr:42", model.SourcePR)
	decision := testDecision("d1", source.ID)
	decision.Entities = []model.Entity{
		{Name: "Redis", Type: model.EntityTechnology},
		{Name: "caching", Type: model.EntityPattern},
	}

	if err := repo.SaveExtraction(source, []model.Decision{decision}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	// Re-extraction replaces the entity set entirely
	decision.Entities = []model.Entity{
		{Name: "PostgreSQL", Type: model.EntityTechnology},
	}
	if err := repo.SaveDecision(decision); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	stale, err := repo.DecisionsByEntity("Redis")
	if err != nil {
		t.Fatalf("DecisionsByEntity failed: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("Expected stale entity tag to be gone, got %d decisions", len(stale))
	}

	records, err := repo.AllDecisions("", "", 100)
	if err != nil {
		t.Fatalf("AllDecisions failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 decision after re-save, got %d", len(records))
	}
	if len(records[0].Entities) != 1 || records[0].Entities[0].Name != "PostgreSQL" {
		t.Errorf("Expected replaced entity set, got %v", records[0].Entities)
	}
}

func TestDecisionsByEntityCaseInsensitive(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("pr:42", model.SourcePR)
	if err := repo.SaveExtraction(source, []model.Decision{testDecision("d1", source.ID)}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	records, err := repo.DecisionsByEntity("postgresql")
	if err != nil {
		t.Fatalf("DecisionsByEntity failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 decision for lowercased lookup, got %d", len(records))
	}
	// Display case is preserved
	if records[0].Entities[0].Name != "PostgreSQL" {
		t.Errorf("Expected preserved entity case, got %q", records[0].Entities[0].Name)
	}
}

func TestSearchDecisionsMatchesReasoning(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("pr:42", model.SourcePR)
	decision := testDecision("d1", source.ID)
	decision.Reasoning = "Chosen for its idempotency guarantees"

	if err := repo.SaveExtraction(source, []model.Decision{decision}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	// Token appears only in reasoning, not the summary
	records, err := repo.SearchDecisions("idempotency", 10)
	if err != nil {
		t.Fatalf("SearchDecisions failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "d1" {
		t.Errorf("Expected reasoning-only token to match, got %v", records)
	}
}

func TestFTSStaysInSync(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("pr:42", model.SourcePR)
	decision := testDecision("d1", source.ID)
	decision.Summary = "Adopt GraphQL for the public API"

	if err := repo.SaveExtraction(source, []model.Decision{decision}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	// Replace the row; the old index entry must disappear
	decision.Summary = "Adopt gRPC for the public API"
	if err := repo.SaveDecision(decision); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	old, err := repo.SearchDecisions("GraphQL", 10)
	if err != nil {
		t.Fatalf("SearchDecisions failed: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("Expected stale index entry to be gone, got %d hits", len(old))
	}

	// The index itself must be clean, not just the joined view: an
	// upsert that bypassed the update trigger would leave the old
	// posting behind at the dropped rowid
	var stale int
	if err := db.QueryRow("SELECT COUNT(*) FROM decisions_fts WHERE decisions_fts MATCH 'graphql'").Scan(&stale); err != nil {
		t.Fatalf("FTS count query failed: %v", err)
	}
	if stale != 0 {
		t.Errorf("Expected no stale FTS postings, got %d", stale)
	}

	updated, err := repo.SearchDecisions("gRPC", 10)
	if err != nil {
		t.Fatalf("SearchDecisions failed: %v", err)
	}
	if len(updated) != 1 {
		t.Errorf("Expected updated summary to be indexed, got %d hits", len(updated))
	}

	// Deleting the row removes it from the index too; the entity
	// junction rows go with it via ON DELETE CASCADE
	if _, err := db.Exec("DELETE FROM decisions WHERE id = ?", decision.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	gone, err := repo.SearchDecisions("gRPC", 10)
	if err != nil {
		t.Fatalf("SearchDecisions failed: %v", err)
	}
	if len(gone) != 0 {
		t.Errorf("Expected deleted decision out of index, got %d hits", len(gone))
	}

	var orphans int
	row := db.QueryRow("SELECT COUNT(*) FROM decision_entities WHERE decision_id = ?", decision.ID)
	if err := row.Scan(&orphans); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if orphans != 0 {
		t.Errorf("Expected entity rows to cascade, got %d leftover", orphans)
	}
}

func TestLearningsRoundTrip(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("session:chk-1", model.SourceSession)
	learning := model.Learning{
		ID:         "l1",
		SourceID:   source.ID,
		Category:   model.CategoryGotcha,
		Summary:    "Viper silently ignores unknown config keys",
		Detail:     "Typos in config.json pass validation unnoticed",
		Components: []string{"internal/config/config.go"},
		Entities: []model.Entity{
			{Name: "viper", Type: model.EntityLibrary},
		},
		SessionDate: "2026-03-01",
		ExtractedAt: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}

	if err := repo.SaveLearningExtraction(source, []model.Learning{learning}); err != nil {
		t.Fatalf("SaveLearningExtraction failed: %v", err)
	}

	records, err := repo.RecentLearnings(10, "")
	if err != nil {
		t.Fatalf("RecentLearnings failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 learning, got %d", len(records))
	}
	rec := records[0]
	if rec.Category != model.CategoryGotcha {
		t.Errorf("Expected category gotcha, got %s", rec.Category)
	}
	if len(rec.Components) != 1 || rec.Components[0] != "internal/config/config.go" {
		t.Errorf("Components did not round-trip: %v", rec.Components)
	}
	if len(rec.Entities) != 1 || rec.Entities[0].Name != "viper" {
		t.Errorf("Entities did not round-trip: %v", rec.Entities)
	}

	// Category filter excludes non-matching learnings
	none, err := repo.RecentLearnings(10, model.CategoryBugFix)
	if err != nil {
		t.Fatalf("RecentLearnings failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no bug_fix learnings, got %d", len(none))
	}

	// Full-text search hits the detail field
	hits, err := repo.SearchLearnings("validation", "", 10)
	if err != nil {
		t.Fatalf("SearchLearnings failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Expected detail-only token to match, got %d hits", len(hits))
	}

	byEntity, err := repo.LearningsByEntity("VIPER")
	if err != nil {
		t.Fatalf("LearningsByEntity failed: %v", err)
	}
	if len(byEntity) != 1 {
		t.Errorf("Expected case-insensitive entity match, got %d", len(byEntity))
	}
}

func TestEntitiesOrderedByCount(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("pr:42", model.SourcePR)
	d1 := testDecision("d1", source.ID)
	d1.Entities = []model.Entity{
		{Name: "Redis", Type: model.EntityTechnology},
		{Name: "PostgreSQL", Type: model.EntityTechnology},
	}
	d2 := testDecision("d2", source.ID)
	d2.Entities = []model.Entity{
		{Name: "Redis", Type: model.EntityTechnology},
	}

	if err := repo.SaveExtraction(source, []model.Decision{d1, d2}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	counts, err := repo.Entities()
	if err != nil {
		t.Fatalf("Entities failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(counts))
	}
	if counts[0].Name != "Redis" || counts[0].DecisionCount != 2 {
		t.Errorf("Expected Redis with count 2 first, got %+v", counts[0])
	}
}

func TestStats(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	prSource := testSource("pr:1", model.SourcePR)
	sessionSource := testSource("session:chk-1", model.SourceSession)

	if err := repo.SaveExtraction(prSource, []model.Decision{testDecision("d1", prSource.ID)}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}
	learning := model.Learning{
		ID:          "l1",
		SourceID:    sessionSource.ID,
		Category:    model.CategoryBugFix,
		Summary:     "Off-by-one in pagination cursor",
		ExtractedAt: time.Now().UTC(),
	}
	if err := repo.SaveLearningExtraction(sessionSource, []model.Learning{learning}); err != nil {
		t.Fatalf("SaveLearningExtraction failed: %v", err)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalSources != 2 {
		t.Errorf("Expected 2 sources, got %d", stats.TotalSources)
	}
	if stats.TotalDecisions != 1 {
		t.Errorf("Expected 1 decision, got %d", stats.TotalDecisions)
	}
	if stats.PRSources != 1 || stats.SessionSources != 1 {
		t.Errorf("Expected 1 pr and 1 session source, got %+v", stats)
	}
	if stats.TotalLearnings != 1 || stats.BugFixes != 1 {
		t.Errorf("Expected 1 bug_fix learning, got %+v", stats)
	}
	if stats.UniqueEntities != 1 {
		t.Errorf("Expected 1 unique entity, got %d", stats.UniqueEntities)
	}
}

func TestMalformedStoredListDegradesToEmpty(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)
	repo := NewRepository(db)

	source := testSource("pr:42", model.SourcePR)
	if err := repo.SaveExtraction(source, []model.Decision{testDecision("d1", source.ID)}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	if _, err := db.Exec("UPDATE decisions SET alternatives = 'not json' WHERE id = 'd1'"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	records, err := repo.AllDecisions("", "", 10)
	if err != nil {
		t.Fatalf("AllDecisions failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 decision, got %d", len(records))
	}
	if len(records[0].Alternatives) != 0 {
		t.Errorf("Expected malformed alternatives to read as empty, got %v", records[0].Alternatives)
	}
}
