package extract

import (
	"time"

	"kontext/internal/llm"
	"kontext/internal/model"
)

// Wire shapes for model responses. Missing optional fields default to
// their zero values; required-field and closed-set violations drop the
// individual record, never the whole batch.
type entityPayload struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type"`
}

type decisionPayload struct {
	Summary      string          `json:"summary"`
	Reasoning    string          `json:"reasoning"`
	Alternatives []string        `json:"alternatives"`
	Entities     []entityPayload `json:"entities"`
	Confidence   string          `json:"confidence"`
}

type decisionResponse struct {
	Decisions []decisionPayload `json:"decisions"`
}

type learningPayload struct {
	Category   string          `json:"category"`
	Summary    string          `json:"summary"`
	Detail     string          `json:"detail"`
	Components []string        `json:"components"`
	Entities   []entityPayload `json:"entities"`
}

type learningResponse struct {
	Learnings []learningPayload `json:"learnings"`
}

func convertEntities(payloads []entityPayload) []model.Entity {
	var entities []model.Entity
	for _, e := range payloads {
		if e.Name == "" {
			continue
		}
		entities = append(entities, model.Entity{
			Name: e.Name,
			Type: model.ParseEntityType(e.EntityType),
		})
	}
	return entities
}

// parseDecisions converts a model response into decisions. Malformed
// JSON is logged and yields zero records.
func (p *Pipeline) parseDecisions(text, sourceID, decisionDate string) []model.Decision {
	var resp decisionResponse
	if err := llm.ParseFencedJSON(text, &resp); err != nil {
		p.logger.Warn("Failed to parse decision response", map[string]interface{}{
			"source": sourceID,
			"error":  err.Error(),
		})
		return nil
	}

	var decisions []model.Decision
	for _, item := range resp.Decisions {
		if item.Summary == "" {
			continue
		}
		decisions = append(decisions, model.Decision{
			ID:           model.NewID(),
			SourceID:     sourceID,
			Summary:      item.Summary,
			Reasoning:    item.Reasoning,
			Alternatives: item.Alternatives,
			Entities:     convertEntities(item.Entities),
			Confidence:   model.ParseConfidence(item.Confidence),
			DecisionDate: decisionDate,
			ExtractedAt:  time.Now(),
		})
	}
	return decisions
}

// parseLearnings converts a model response into learnings. Records
// with a category outside the closed set are dropped individually;
// siblings in the same response are kept.
func (p *Pipeline) parseLearnings(text, sourceID string) []model.Learning {
	var resp learningResponse
	if err := llm.ParseFencedJSON(text, &resp); err != nil {
		p.logger.Warn("Failed to parse learning response", map[string]interface{}{
			"source": sourceID,
			"error":  err.Error(),
		})
		return nil
	}

	var learnings []model.Learning
	for _, item := range resp.Learnings {
		if !model.IsValidCategory(item.Category) {
			p.logger.Warn("Skipping learning with invalid category", map[string]interface{}{
				"source":   sourceID,
				"category": item.Category,
			})
			continue
		}
		learnings = append(learnings, model.Learning{
			ID:          model.NewID(),
			SourceID:    sourceID,
			Category:    model.Category(item.Category),
			Summary:     item.Summary,
			Detail:      item.Detail,
			Components:  item.Components,
			Entities:    convertEntities(item.Entities),
			SessionDate: time.Now().Format("2006-01-02"),
			ExtractedAt: time.Now(),
		})
	}
	return learnings
}
