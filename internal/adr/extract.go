package adr

import (
	"time"

	"kontext/internal/model"
)

// Record is one decision-record file handed to the extractor by a
// fetcher collaborator (or loaded from a local directory).
type Record struct {
	Path    string
	URL     string
	Content string
}

// AssessConfidence grades how explicitly a decision is stated based on
// which sections the record carries.
func AssessConfidence(sections map[string]string) model.Confidence {
	hasDecision := sections[SectionDecision] != ""
	hasContext := sections[SectionContext] != ""

	switch {
	case hasDecision && hasContext:
		return model.ConfidenceHigh
	case hasDecision || hasContext:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// ExtractDecisions parses a decision record deterministically. The
// source record is always built, even when nothing is extracted, so
// "this file was inspected" stays auditable. A record with neither a
// decision nor a context section yields zero decisions; that is a
// policy choice, not an error.
func ExtractDecisions(rec Record, repo string) (model.Source, []model.Decision) {
	source := model.Source{
		ID:         "adr:" + rec.Path,
		Kind:       model.SourceADR,
		Repo:       repo,
		URL:        rec.URL,
		Title:      ExtractTitle(rec.Content),
		RawContent: rec.Content,
		FetchedAt:  time.Now(),
	}

	sections := Segment(rec.Content)

	if sections[SectionDecision] == "" && sections[SectionContext] == "" {
		return source, nil
	}

	summary := BuildSummary(sections, source.Title)
	reasoning := sections[SectionContext]
	alternatives := ExtractAlternatives(sections[SectionAlternatives])
	entities := TagEntities(summary + " " + reasoning + " " + sections[SectionAlternatives])

	decision := model.Decision{
		ID:           model.NewID(),
		SourceID:     source.ID,
		Summary:      summary,
		Reasoning:    reasoning,
		Alternatives: alternatives,
		Entities:     entities,
		Confidence:   AssessConfidence(sections),
		DecisionDate: ExtractDate(rec.Content),
		ExtractedAt:  time.Now(),
	}

	return source, []model.Decision{decision}
}
