package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"kontext/internal/kerrors"
	"kontext/internal/llm"
	"kontext/internal/logging"
	"kontext/internal/storage"
)

const validationMaxTokens = 1024

// Verdict values for approach validation
const (
	VerdictConflicts  = "CONFLICTS"
	VerdictAligns     = "ALIGNS"
	VerdictNoCoverage = "NO_COVERAGE"
)

// Conflict severity values
const (
	SeverityHard = "hard"
	SeveritySoft = "soft"
)

const validationPrompt = `You are a strict engineering decision validator. Your job is to check whether a proposed implementation approach CONFLICTS with the team's existing engineering decisions.

Err on the side of flagging potential conflicts — it's better to warn about a possible issue than to let a contradiction slip through.

## Proposed Approach
%s

%s

## Team's Engineering Decisions
%s

## Instructions

Analyze the proposed approach against EVERY decision listed above. For each decision, determine if the proposal:
- **CONFLICTS** with it (directly contradicts an explicit choice)
- **ALIGNS** with it (consistent with or supported by the decision)
- Is **IRRELEVANT** (decision is about a different topic)

Then produce your overall verdict.

Respond with ONLY valid JSON in this exact format:
{
  "verdict": "CONFLICTS" | "ALIGNS" | "NO_COVERAGE",
  "conflicts": [
    {
      "decision_summary": "The specific decision that is violated",
      "source_url": "URL of the source (from the decisions above)",
      "explanation": "Why the proposed approach conflicts with this decision",
      "severity": "hard" | "soft"
    }
  ],
  "alignments": [
    "Brief description of each decision that supports the approach"
  ],
  "warnings": [
    "Soft concerns even if no hard conflict (e.g., team pattern not formally decided but consistently used)"
  ],
  "recommendation": "One clear, actionable sentence telling the agent what to do"
}

Verdict rules:
- **CONFLICTS**: At least one hard conflict exists (explicit decision contradicted)
- **ALIGNS**: No conflicts, and at least one decision actively supports the approach
- **NO_COVERAGE**: No relevant decisions exist for this topic — the team hasn't decided on this yet

Severity rules:
- **hard**: The team explicitly decided on an alternative (e.g., "chose PostgreSQL" but agent proposes MongoDB)
- **soft**: No explicit decision, but the team has a consistent pattern (e.g., REST everywhere, agent proposes GraphQL)

The recommendation must be specific and actionable:
- GOOD: "Use PostgreSQL instead — the team chose it over MongoDB for X reasons (see PR #42)"
- BAD: "There might be a conflict, please review"

If verdict is NO_COVERAGE, the recommendation should note that this is a new decision area and suggest documenting whatever choice is made.
`

// ConflictDetail is one decision the proposed approach violates
type ConflictDetail struct {
	DecisionSummary string `json:"decisionSummary"`
	SourceURL       string `json:"sourceUrl"`
	Explanation     string `json:"explanation"`
	Severity        string `json:"severity"` // "hard" | "soft"
}

// ValidationResult is the structured verdict for a proposed approach
type ValidationResult struct {
	ProposedApproach string           `json:"proposedApproach"`
	Verdict          string           `json:"verdict"`
	Conflicts        []ConflictDetail `json:"conflicts"`
	Alignments       []string         `json:"alignments"`
	Warnings         []string         `json:"warnings"`
	Recommendation   string           `json:"recommendation"`
	DecisionsChecked int              `json:"decisionsChecked"`
}

// Wire shapes for the model's JSON response
type conflictPayload struct {
	DecisionSummary string `json:"decision_summary"`
	SourceURL       string `json:"source_url"`
	Explanation     string `json:"explanation"`
	Severity        string `json:"severity"`
}

type validationPayload struct {
	Verdict        string            `json:"verdict"`
	Conflicts      []conflictPayload `json:"conflicts"`
	Alignments     []string          `json:"alignments"`
	Warnings       []string          `json:"warnings"`
	Recommendation string            `json:"recommendation"`
}

// Validator checks proposed approaches against existing engineering
// decisions
type Validator struct {
	retriever *Retriever
	completer llm.Completer
	logger    *logging.Logger
	policy    llm.RetryPolicy
}

// NewValidator creates a decision validator
func NewValidator(repo *storage.Repository, completer llm.Completer, logger *logging.Logger, policy llm.RetryPolicy) *Validator {
	return &Validator{
		retriever: NewRetriever(repo),
		completer: completer,
		logger:    logger,
		policy:    policy,
	}
}

// Validate checks a proposed approach against stored decisions. The
// optional context string gives the model extra background about where
// the approach will be applied.
func (v *Validator) Validate(ctx context.Context, proposedApproach, approachContext string) (ValidationResult, error) {
	decisions, err := v.retriever.ForValidation(proposedApproach)
	if err != nil {
		return ValidationResult{}, err
	}

	// No candidates: NO_COVERAGE, never call the model
	if len(decisions) == 0 {
		return ValidationResult{
			ProposedApproach: proposedApproach,
			Verdict:          VerdictNoCoverage,
			Recommendation: "No engineering decisions exist for this area. " +
				"Proceed with your best judgment, but consider documenting " +
				"this choice as a new decision for the team.",
		}, nil
	}

	return v.runValidation(ctx, proposedApproach, approachContext, decisions), nil
}

func (v *Validator) runValidation(ctx context.Context, proposedApproach, approachContext string, decisions []storage.DecisionRecord) ValidationResult {
	contextSection := ""
	if approachContext != "" {
		contextSection = "## Context\n" + approachContext
	}

	prompt := fmt.Sprintf(validationPrompt,
		proposedApproach,
		contextSection,
		formatForValidation(decisions),
	)

	response, err := llm.CallWithBackoff(ctx, v.logger, v.policy, func() (string, error) {
		return v.completer.Complete(ctx, prompt, validationMaxTokens)
	})
	if err != nil {
		v.logger.Error("Validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		recommendation := fmt.Sprintf("Unable to validate due to API error: %v", err)
		if errors.Is(err, kerrors.ErrRateLimited) {
			recommendation = "Unable to validate: API rate limit exceeded. Try again later."
		}
		return ValidationResult{
			ProposedApproach: proposedApproach,
			Verdict:          VerdictNoCoverage,
			Recommendation:   recommendation,
			DecisionsChecked: len(decisions),
		}
	}

	return v.parseResponse(strings.TrimSpace(response), proposedApproach, len(decisions))
}

// parseResponse parses the model's JSON verdict, degrading to
// NO_COVERAGE on malformed output
func (v *Validator) parseResponse(text, proposedApproach string, decisionsChecked int) ValidationResult {
	var payload validationPayload
	if err := llm.ParseFencedJSON(text, &payload); err != nil {
		v.logger.Warn("Failed to parse validation response", map[string]interface{}{
			"response": truncateForLog(text, 200),
		})
		return ValidationResult{
			ProposedApproach: proposedApproach,
			Verdict:          VerdictNoCoverage,
			Recommendation:   "Validation response was not parseable. Proceed with caution.",
			DecisionsChecked: decisionsChecked,
		}
	}

	conflicts := make([]ConflictDetail, 0, len(payload.Conflicts))
	for _, c := range payload.Conflicts {
		severity := c.Severity
		if severity != SeverityHard {
			severity = SeveritySoft
		}
		conflicts = append(conflicts, ConflictDetail{
			DecisionSummary: c.DecisionSummary,
			SourceURL:       c.SourceURL,
			Explanation:     c.Explanation,
			Severity:        severity,
		})
	}

	verdict := payload.Verdict
	switch verdict {
	case VerdictConflicts, VerdictAligns, VerdictNoCoverage:
	default:
		verdict = VerdictNoCoverage
	}

	return ValidationResult{
		ProposedApproach: proposedApproach,
		Verdict:          verdict,
		Conflicts:        conflicts,
		Alignments:       payload.Alignments,
		Warnings:         payload.Warnings,
		Recommendation:   payload.Recommendation,
		DecisionsChecked: decisionsChecked,
	}
}

func truncateForLog(text string, limit int) string {
	return clipRunes(text, limit)
}

// clipRunes cuts text to at most limit bytes, backing up so a
// multi-byte rune is never split
func clipRunes(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
