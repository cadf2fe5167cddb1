package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"kontext/internal/model"
)

// Repository is the data access layer over the kontext database.
// All writes use replace semantics keyed on record id, so re-running
// an extraction over the same sources is idempotent.
type Repository struct {
	db *DB
}

// NewRepository creates a repository backed by db
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// DecisionRecord is a decision joined with the source it came from
type DecisionRecord struct {
	model.Decision
	SourceURL   string           `json:"sourceUrl"`
	SourceTitle string           `json:"sourceTitle"`
	SourceKind  model.SourceKind `json:"sourceKind"`
}

// LearningRecord is a learning joined with the source it came from
type LearningRecord struct {
	model.Learning
	SourceURL   string           `json:"sourceUrl"`
	SourceTitle string           `json:"sourceTitle"`
	SourceKind  model.SourceKind `json:"sourceKind"`
}

// EntityCount is an entity with the number of decisions referencing it
type EntityCount struct {
	Name          string           `json:"name"`
	Type          model.EntityType `json:"entityType"`
	DecisionCount int              `json:"decisionCount"`
}

// Stats summarizes the extracted data
type Stats struct {
	TotalSources    int `json:"totalSources"`
	TotalDecisions  int `json:"totalDecisions"`
	UniqueEntities  int `json:"uniqueEntities"`
	PRSources       int `json:"prSources"`
	ADRSources      int `json:"adrSources"`
	DocSources      int `json:"docSources"`
	SessionSources  int `json:"sessionSources"`
	TotalLearnings  int `json:"totalLearnings"`
	BugFixes        int `json:"bugFixes"`
	Gotchas         int `json:"gotchas"`
	Implementations int `json:"implementations"`
}

// SaveSource inserts or replaces a source record
func (r *Repository) SaveSource(source model.Source) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		return saveSourceTx(tx, source)
	})
}

// SaveDecision inserts or replaces a decision and its entities
func (r *Repository) SaveDecision(decision model.Decision) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		return saveDecisionTx(tx, decision)
	})
}

// SaveLearning inserts or replaces a learning and its entities
func (r *Repository) SaveLearning(learning model.Learning) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		return saveLearningTx(tx, learning)
	})
}

// SaveExtraction saves a source and all its extracted decisions in one
// transaction, so a crash mid-batch never leaves a source without its
// decisions or vice versa.
func (r *Repository) SaveExtraction(source model.Source, decisions []model.Decision) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		if err := saveSourceTx(tx, source); err != nil {
			return err
		}
		for _, decision := range decisions {
			if err := saveDecisionTx(tx, decision); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveLearningExtraction saves a source and all its extracted learnings
// in one transaction
func (r *Repository) SaveLearningExtraction(source model.Source, learnings []model.Learning) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		if err := saveSourceTx(tx, source); err != nil {
			return err
		}
		for _, learning := range learnings {
			if err := saveLearningTx(tx, learning); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveSourceTx(tx *sql.Tx, source model.Source) error {
	_, err := tx.Exec(`
		INSERT INTO sources (id, source_type, repo, url, title, raw_content, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_type = excluded.source_type,
			repo = excluded.repo,
			url = excluded.url,
			title = excluded.title,
			raw_content = excluded.raw_content,
			fetched_at = excluded.fetched_at`,
		source.ID,
		string(source.Kind),
		source.Repo,
		source.URL,
		source.Title,
		source.RawContent,
		source.FetchedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save source %s: %w", source.ID, err)
	}
	return nil
}

func saveDecisionTx(tx *sql.Tx, decision model.Decision) error {
	alternatives, err := json.Marshal(decision.Alternatives)
	if err != nil {
		return fmt.Errorf("failed to encode alternatives: %w", err)
	}

	// Conflict update rather than REPLACE: REPLACE deletes then inserts,
	// which skips the FTS update trigger and strands the old posting
	_, err = tx.Exec(`
		INSERT INTO decisions
		(id, source_id, summary, reasoning, alternatives, confidence, decision_date, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			summary = excluded.summary,
			reasoning = excluded.reasoning,
			alternatives = excluded.alternatives,
			confidence = excluded.confidence,
			decision_date = excluded.decision_date,
			extracted_at = excluded.extracted_at`,
		decision.ID,
		decision.SourceID,
		decision.Summary,
		decision.Reasoning,
		string(alternatives),
		string(decision.Confidence),
		decision.DecisionDate,
		decision.ExtractedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save decision %s: %w", decision.ID, err)
	}

	// Clear existing entities so re-extraction never leaves stale tags
	if _, err := tx.Exec("DELETE FROM decision_entities WHERE decision_id = ?", decision.ID); err != nil {
		return fmt.Errorf("failed to clear decision entities: %w", err)
	}

	for _, entity := range decision.Entities {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO decision_entities (decision_id, entity, entity_type)
			VALUES (?, ?, ?)`,
			decision.ID, entity.Name, string(entity.Type),
		)
		if err != nil {
			return fmt.Errorf("failed to save decision entity: %w", err)
		}
	}

	return nil
}

func saveLearningTx(tx *sql.Tx, learning model.Learning) error {
	components, err := json.Marshal(learning.Components)
	if err != nil {
		return fmt.Errorf("failed to encode components: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO learnings
		(id, source_id, category, summary, detail, components, session_date, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			category = excluded.category,
			summary = excluded.summary,
			detail = excluded.detail,
			components = excluded.components,
			session_date = excluded.session_date,
			extracted_at = excluded.extracted_at`,
		learning.ID,
		learning.SourceID,
		string(learning.Category),
		learning.Summary,
		learning.Detail,
		string(components),
		learning.SessionDate,
		learning.ExtractedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save learning %s: %w", learning.ID, err)
	}

	if _, err := tx.Exec("DELETE FROM learning_entities WHERE learning_id = ?", learning.ID); err != nil {
		return fmt.Errorf("failed to clear learning entities: %w", err)
	}

	for _, entity := range learning.Entities {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO learning_entities (learning_id, entity, entity_type)
			VALUES (?, ?, ?)`,
			learning.ID, entity.Name, string(entity.Type),
		)
		if err != nil {
			return fmt.Errorf("failed to save learning entity: %w", err)
		}
	}

	return nil
}

const decisionColumns = `
	d.id, d.source_id, d.summary,
	COALESCE(d.reasoning, ''), COALESCE(d.alternatives, ''),
	COALESCE(d.confidence, ''), COALESCE(d.decision_date, ''),
	COALESCE(d.extracted_at, ''),
	s.url, COALESCE(s.title, ''), s.source_type`

// AllDecisions returns decisions with optional repo and source-kind
// filters, newest first
func (r *Repository) AllDecisions(repo string, kind model.SourceKind, limit int) ([]DecisionRecord, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM decisions d
		JOIN sources s ON d.source_id = s.id
		WHERE 1=1`
	var params []interface{}

	if repo != "" {
		query += " AND s.repo = ?"
		params = append(params, repo)
	}
	if kind != "" {
		query += " AND s.source_type = ?"
		params = append(params, string(kind))
	}

	query += " ORDER BY d.extracted_at DESC LIMIT ?"
	params = append(params, limit)

	return r.queryDecisions(query, params...)
}

// DecisionsByEntity finds decisions tagged with an entity,
// case-insensitive exact match on the entity name
func (r *Repository) DecisionsByEntity(entity string) ([]DecisionRecord, error) {
	return r.queryDecisions(`
		SELECT `+decisionColumns+`
		FROM decisions d
		JOIN sources s ON d.source_id = s.id
		JOIN decision_entities de ON d.id = de.decision_id
		WHERE LOWER(de.entity) = LOWER(?)
		ORDER BY d.extracted_at DESC`,
		entity,
	)
}

// SearchDecisions runs a full-text search across decision summaries,
// reasoning, and alternatives, best match first
func (r *Repository) SearchDecisions(matchQuery string, limit int) ([]DecisionRecord, error) {
	return r.queryDecisions(`
		SELECT `+decisionColumns+`
		FROM decisions d
		JOIN sources s ON d.source_id = s.id
		JOIN decisions_fts fts ON d.rowid = fts.rowid
		WHERE decisions_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		matchQuery, limit,
	)
}

func (r *Repository) queryDecisions(query string, params ...interface{}) ([]DecisionRecord, error) {
	rows, err := r.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var records []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var alternatives, confidence, extractedAt, sourceKind string
		if err := rows.Scan(
			&rec.ID, &rec.SourceID, &rec.Summary,
			&rec.Reasoning, &alternatives,
			&confidence, &rec.DecisionDate,
			&extractedAt,
			&rec.SourceURL, &rec.SourceTitle, &sourceKind,
		); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		rec.Alternatives = decodeStringList(alternatives)
		rec.Confidence = model.Confidence(confidence)
		rec.ExtractedAt = parseTimestamp(extractedAt)
		rec.SourceKind = model.SourceKind(sourceKind)

		entities, err := r.entitiesFor("decision_entities", "decision_id", rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Entities = entities

		records = append(records, rec)
	}

	return records, rows.Err()
}

const learningColumns = `
	l.id, l.source_id, l.category, l.summary,
	COALESCE(l.detail, ''), COALESCE(l.components, ''),
	COALESCE(l.session_date, ''), COALESCE(l.extracted_at, ''),
	s.url, COALESCE(s.title, ''), s.source_type`

// SearchLearnings runs a full-text search across learning summaries,
// details, and components, optionally restricted to one category
func (r *Repository) SearchLearnings(matchQuery string, category model.Category, limit int) ([]LearningRecord, error) {
	if category != "" {
		return r.queryLearnings(`
			SELECT `+learningColumns+`
			FROM learnings l
			JOIN sources s ON l.source_id = s.id
			JOIN learnings_fts fts ON l.rowid = fts.rowid
			WHERE learnings_fts MATCH ? AND l.category = ?
			ORDER BY rank
			LIMIT ?`,
			matchQuery, string(category), limit,
		)
	}
	return r.queryLearnings(`
		SELECT `+learningColumns+`
		FROM learnings l
		JOIN sources s ON l.source_id = s.id
		JOIN learnings_fts fts ON l.rowid = fts.rowid
		WHERE learnings_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		matchQuery, limit,
	)
}

// RecentLearnings returns the most recently extracted learnings,
// optionally filtered by category
func (r *Repository) RecentLearnings(limit int, category model.Category) ([]LearningRecord, error) {
	if category != "" {
		return r.queryLearnings(`
			SELECT `+learningColumns+`
			FROM learnings l
			JOIN sources s ON l.source_id = s.id
			WHERE l.category = ?
			ORDER BY l.extracted_at DESC
			LIMIT ?`,
			string(category), limit,
		)
	}
	return r.queryLearnings(`
		SELECT `+learningColumns+`
		FROM learnings l
		JOIN sources s ON l.source_id = s.id
		ORDER BY l.extracted_at DESC
		LIMIT ?`,
		limit,
	)
}

// LearningsByEntity finds learnings tagged with an entity,
// case-insensitive exact match on the entity name
func (r *Repository) LearningsByEntity(entity string) ([]LearningRecord, error) {
	return r.queryLearnings(`
		SELECT `+learningColumns+`
		FROM learnings l
		JOIN sources s ON l.source_id = s.id
		JOIN learning_entities le ON l.id = le.learning_id
		WHERE LOWER(le.entity) = LOWER(?)
		ORDER BY l.extracted_at DESC`,
		entity,
	)
}

func (r *Repository) queryLearnings(query string, params ...interface{}) ([]LearningRecord, error) {
	rows, err := r.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query learnings: %w", err)
	}
	defer rows.Close()

	var records []LearningRecord
	for rows.Next() {
		var rec LearningRecord
		var category, components, extractedAt, sourceKind string
		if err := rows.Scan(
			&rec.ID, &rec.SourceID, &category, &rec.Summary,
			&rec.Detail, &components,
			&rec.SessionDate, &extractedAt,
			&rec.SourceURL, &rec.SourceTitle, &sourceKind,
		); err != nil {
			return nil, fmt.Errorf("failed to scan learning: %w", err)
		}
		rec.Category = model.Category(category)
		rec.Components = decodeStringList(components)
		rec.ExtractedAt = parseTimestamp(extractedAt)
		rec.SourceKind = model.SourceKind(sourceKind)

		entities, err := r.entitiesFor("learning_entities", "learning_id", rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Entities = entities

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *Repository) entitiesFor(table, idColumn, id string) ([]model.Entity, error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT entity, COALESCE(entity_type, '') FROM %s WHERE %s = ?", table, idColumn),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []model.Entity
	for rows.Next() {
		var entity model.Entity
		var entityType string
		if err := rows.Scan(&entity.Name, &entityType); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entity.Type = model.EntityType(entityType)
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// Entities returns all distinct entities with the number of decisions
// referencing each, most referenced first
func (r *Repository) Entities() ([]EntityCount, error) {
	rows, err := r.db.Query(`
		SELECT entity, COALESCE(entity_type, ''), COUNT(*) as decision_count
		FROM decision_entities
		GROUP BY entity, entity_type
		ORDER BY decision_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var counts []EntityCount
	for rows.Next() {
		var ec EntityCount
		var entityType string
		if err := rows.Scan(&ec.Name, &entityType, &ec.DecisionCount); err != nil {
			return nil, fmt.Errorf("failed to scan entity count: %w", err)
		}
		ec.Type = model.EntityType(entityType)
		counts = append(counts, ec)
	}

	return counts, rows.Err()
}

// Stats returns summary statistics about the extracted data
func (r *Repository) Stats() (Stats, error) {
	var stats Stats

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM sources", &stats.TotalSources},
		{"SELECT COUNT(*) FROM decisions", &stats.TotalDecisions},
		{"SELECT COUNT(DISTINCT entity) FROM decision_entities", &stats.UniqueEntities},
		{"SELECT COUNT(*) FROM sources WHERE source_type = 'pr'", &stats.PRSources},
		{"SELECT COUNT(*) FROM sources WHERE source_type = 'adr'", &stats.ADRSources},
		{"SELECT COUNT(*) FROM sources WHERE source_type = 'doc'", &stats.DocSources},
		{"SELECT COUNT(*) FROM sources WHERE source_type = 'session'", &stats.SessionSources},
		{"SELECT COUNT(*) FROM learnings", &stats.TotalLearnings},
		{"SELECT COUNT(*) FROM learnings WHERE category = 'bug_fix'", &stats.BugFixes},
		{"SELECT COUNT(*) FROM learnings WHERE category = 'gotcha'", &stats.Gotchas},
		{"SELECT COUNT(*) FROM learnings WHERE category = 'implementation'", &stats.Implementations},
	}

	for _, c := range counts {
		if err := r.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("failed to collect stats: %w", err)
		}
	}

	return stats, nil
}

// decodeStringList parses a stored JSON array, degrading to an empty
// list on malformed input rather than failing the read
func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
