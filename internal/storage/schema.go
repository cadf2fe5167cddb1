package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		// Create schema_version table first
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}

		// Create all application tables
		if err := createSourcesTable(tx); err != nil {
			return err
		}
		if err := createDecisionsTable(tx); err != nil {
			return err
		}
		if err := createLearningsTable(tx); err != nil {
			return err
		}

		// Full-text indexes and their sync triggers
		if err := createDecisionsFTS(tx); err != nil {
			return err
		}
		if err := createLearningsFTS(tx); err != nil {
			return err
		}

		// Set initial schema version
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	// Get current schema version
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", map[string]interface{}{
			"version": version,
		})
		return nil
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Run migrations sequentially
	// Add migration functions here as schema evolves

	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	// Check if schema_version table exists
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		// Table doesn't exist, this is a new database
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	// Get version
	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createSourcesTable creates the sources table
func createSourcesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			source_type TEXT NOT NULL,
			repo TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT,
			raw_content TEXT,
			fetched_at TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create sources table: %w", err)
	}

	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_sources_repo ON sources(repo)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// createDecisionsTable creates the decisions table and its entity junction
func createDecisionsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL REFERENCES sources(id),
			summary TEXT NOT NULL,
			reasoning TEXT,
			alternatives TEXT,
			confidence TEXT,
			decision_date TEXT,
			extracted_at TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create decisions table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS decision_entities (
			decision_id TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
			entity TEXT NOT NULL,
			entity_type TEXT,
			PRIMARY KEY (decision_id, entity)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create decision_entities table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_decisions_source ON decisions(source_id)",
		"CREATE INDEX IF NOT EXISTS idx_decision_entities_entity ON decision_entities(entity)",
	}

	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// createLearningsTable creates the learnings table and its entity junction
func createLearningsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS learnings (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL REFERENCES sources(id),
			category TEXT NOT NULL,
			summary TEXT NOT NULL,
			detail TEXT,
			components TEXT,
			session_date TEXT,
			extracted_at TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create learnings table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS learning_entities (
			learning_id TEXT NOT NULL REFERENCES learnings(id) ON DELETE CASCADE,
			entity TEXT NOT NULL,
			entity_type TEXT,
			PRIMARY KEY (learning_id, entity)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create learning_entities table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_learnings_source ON learnings(source_id)",
		"CREATE INDEX IF NOT EXISTS idx_learnings_category ON learnings(category)",
		"CREATE INDEX IF NOT EXISTS idx_learning_entities_entity ON learning_entities(entity)",
	}

	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// createDecisionsFTS creates the decisions full-text index and the
// triggers that keep it synchronized with the decisions table. Only
// the searchable fields are indexed, never the raw source text.
func createDecisionsFTS(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS decisions_fts USING fts5(
			summary,
			reasoning,
			alternatives,
			content='decisions',
			content_rowid='rowid'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create decisions_fts table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS decisions_ai AFTER INSERT ON decisions BEGIN
			INSERT INTO decisions_fts(rowid, summary, reasoning, alternatives)
			VALUES (new.rowid, new.summary, new.reasoning, new.alternatives);
		END`,
		`CREATE TRIGGER IF NOT EXISTS decisions_ad AFTER DELETE ON decisions BEGIN
			INSERT INTO decisions_fts(decisions_fts, rowid, summary, reasoning, alternatives)
			VALUES ('delete', old.rowid, old.summary, old.reasoning, old.alternatives);
		END`,
		`CREATE TRIGGER IF NOT EXISTS decisions_au AFTER UPDATE ON decisions BEGIN
			INSERT INTO decisions_fts(decisions_fts, rowid, summary, reasoning, alternatives)
			VALUES ('delete', old.rowid, old.summary, old.reasoning, old.alternatives);
			INSERT INTO decisions_fts(rowid, summary, reasoning, alternatives)
			VALUES (new.rowid, new.summary, new.reasoning, new.alternatives);
		END`,
	}

	for _, triggerSQL := range triggers {
		if _, err := tx.Exec(triggerSQL); err != nil {
			return fmt.Errorf("failed to create trigger: %w", err)
		}
	}

	return nil
}

// createLearningsFTS creates the learnings full-text index and its
// sync triggers
func createLearningsFTS(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS learnings_fts USING fts5(
			summary,
			detail,
			components,
			content='learnings',
			content_rowid='rowid'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create learnings_fts table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS learnings_ai AFTER INSERT ON learnings BEGIN
			INSERT INTO learnings_fts(rowid, summary, detail, components)
			VALUES (new.rowid, new.summary, new.detail, new.components);
		END`,
		`CREATE TRIGGER IF NOT EXISTS learnings_ad AFTER DELETE ON learnings BEGIN
			INSERT INTO learnings_fts(learnings_fts, rowid, summary, detail, components)
			VALUES ('delete', old.rowid, old.summary, old.detail, old.components);
		END`,
		`CREATE TRIGGER IF NOT EXISTS learnings_au AFTER UPDATE ON learnings BEGIN
			INSERT INTO learnings_fts(learnings_fts, rowid, summary, detail, components)
			VALUES ('delete', old.rowid, old.summary, old.detail, old.components);
			INSERT INTO learnings_fts(rowid, summary, detail, components)
			VALUES (new.rowid, new.summary, new.detail, new.components);
		END`,
	}

	for _, triggerSQL := range triggers {
		if _, err := tx.Exec(triggerSQL); err != nil {
			return fmt.Errorf("failed to create trigger: %w", err)
		}
	}

	return nil
}
