// Package model defines the entity shapes shared by extraction, storage,
// and retrieval: sources, decisions, learnings, and tagged entities.
package model

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind tags the artifact a record was extracted from
type SourceKind string

const (
	SourcePR      SourceKind = "pr"
	SourceADR     SourceKind = "adr"
	SourceDoc     SourceKind = "doc"
	SourceSession SourceKind = "session"
	SourceLearn   SourceKind = "learning"
)

// IsValidSourceKind checks if a kind string is valid
func IsValidSourceKind(kind string) bool {
	switch SourceKind(kind) {
	case SourcePR, SourceADR, SourceDoc, SourceSession, SourceLearn:
		return true
	default:
		return false
	}
}

// Confidence estimates how explicitly a decision was stated
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IsValidConfidence checks if a confidence string is valid
func IsValidConfidence(c string) bool {
	switch Confidence(c) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// ParseConfidence normalizes a confidence string, defaulting to medium
func ParseConfidence(c string) Confidence {
	if IsValidConfidence(c) {
		return Confidence(c)
	}
	return ConfidenceMedium
}

// Category classifies a learning. The set is closed: anything else is
// rejected at parse time.
type Category string

const (
	CategoryBugFix         Category = "bug_fix"
	CategoryGotcha         Category = "gotcha"
	CategoryImplementation Category = "implementation"
)

// IsValidCategory checks if a category string is valid
func IsValidCategory(c string) bool {
	switch Category(c) {
	case CategoryBugFix, CategoryGotcha, CategoryImplementation:
		return true
	default:
		return false
	}
}

// EntityType classifies a tagged entity
type EntityType string

const (
	EntityTechnology EntityType = "technology"
	EntityPattern    EntityType = "pattern"
	EntityService    EntityType = "service"
	EntityLibrary    EntityType = "library"
)

// IsValidEntityType checks if an entity type string is valid
func IsValidEntityType(t string) bool {
	switch EntityType(t) {
	case EntityTechnology, EntityPattern, EntityService, EntityLibrary:
		return true
	default:
		return false
	}
}

// ParseEntityType normalizes an entity type, defaulting to technology
func ParseEntityType(t string) EntityType {
	if IsValidEntityType(t) {
		return EntityType(t)
	}
	return EntityTechnology
}

// Entity is a named technology, pattern, service, or library referenced
// by a decision or learning. Name case is preserved for display; lookups
// are case-insensitive.
type Entity struct {
	Name string     `json:"name"`
	Type EntityType `json:"entityType"`
}

// Source is one fetched artifact: a pull request, decision record,
// document, or session transcript. Immutable once stored except for
// full replace on re-extraction.
type Source struct {
	ID         string     `json:"id"` // kind-prefixed: "pr:123", "adr:docs/adr/001.md"
	Kind       SourceKind `json:"kind"`
	Repo       string     `json:"repo"`
	URL        string     `json:"url"` // empty for artifacts without one
	Title      string     `json:"title"`
	RawContent string     `json:"rawContent"`
	FetchedAt  time.Time  `json:"fetchedAt"`
}

// Decision is one inferred engineering choice. A decision always has a
// non-empty summary and references exactly one existing source.
type Decision struct {
	ID           string     `json:"id"`
	SourceID     string     `json:"sourceId"`
	Summary      string     `json:"summary"`
	Reasoning    string     `json:"reasoning"`
	Alternatives []string   `json:"alternatives,omitempty"`
	Entities     []Entity   `json:"entities,omitempty"`
	Confidence   Confidence `json:"confidence"`
	DecisionDate string     `json:"decisionDate,omitempty"` // ISO date, may be empty
	ExtractedAt  time.Time  `json:"extractedAt"`
}

// Learning is one inferred operational fact from a coding session.
type Learning struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"sourceId"`
	Category    Category  `json:"category"`
	Summary     string    `json:"summary"`
	Detail      string    `json:"detail"`
	Components  []string  `json:"components,omitempty"` // affected file/module paths
	Entities    []Entity  `json:"entities,omitempty"`
	SessionDate string    `json:"sessionDate,omitempty"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// NewID returns a fresh record identifier
func NewID() string {
	return uuid.NewString()
}
