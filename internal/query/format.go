package query

import (
	"fmt"
	"strings"

	"kontext/internal/storage"
)

// formatForSynthesis renders candidate decisions for the answer
// synthesis prompt
func formatForSynthesis(decisions []storage.DecisionRecord) string {
	var parts []string
	for i, d := range decisions {
		parts = append(parts, fmt.Sprintf("### Decision %d (from %s)", i+1, d.SourceKind))
		parts = append(parts, fmt.Sprintf("**Summary:** %s", d.Summary))
		if d.Reasoning != "" {
			parts = append(parts, fmt.Sprintf("**Reasoning:** %s", d.Reasoning))
		}
		if len(d.Alternatives) > 0 {
			parts = append(parts, fmt.Sprintf("**Alternatives considered:** %s", strings.Join(d.Alternatives, ", ")))
		}
		parts = append(parts, fmt.Sprintf("**Confidence:** %s", d.Confidence))
		parts = append(parts, fmt.Sprintf("**Source:** %s", d.SourceURL))
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

// formatForValidation renders candidate decisions for the validation
// prompt. Confidence moves into the header and alternatives are framed
// as rejected so the model treats them as explicit counter-choices.
func formatForValidation(decisions []storage.DecisionRecord) string {
	var parts []string
	for i, d := range decisions {
		parts = append(parts, fmt.Sprintf("### Decision %d (from %s, confidence: %s)", i+1, d.SourceKind, d.Confidence))
		parts = append(parts, fmt.Sprintf("**Summary:** %s", d.Summary))
		if d.Reasoning != "" {
			parts = append(parts, fmt.Sprintf("**Reasoning:** %s", d.Reasoning))
		}
		if len(d.Alternatives) > 0 {
			parts = append(parts, fmt.Sprintf("**Rejected alternatives:** %s", strings.Join(d.Alternatives, ", ")))
		}
		parts = append(parts, fmt.Sprintf("**Source:** %s", d.SourceURL))
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}
