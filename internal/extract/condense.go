package extract

import (
	"fmt"
	"strings"
)

// CondenseTranscript digests a turn-structured transcript into a
// bounded readable summary for prompting. User turns carry the actual
// requests and are always kept; assistant turns are kept but truncated
// per turn; tool-call payloads are omitted entirely. Once the character
// budget is reached the remainder is dropped with a marker.
func CondenseTranscript(transcript []Turn, budget int) string {
	var parts []string
	totalChars := 0

	for i, turn := range transcript {
		if totalChars >= budget {
			parts = append(parts, fmt.Sprintf("... (%d more messages, truncated)", len(transcript)-i))
			break
		}

		var text string
		switch turn.Role {
		case RoleUser:
			if turn.Text != "" {
				text = "**User:** " + turn.Text
			}
		case RoleAssistant:
			if turn.Text != "" {
				content := turn.Text
				if len(content) > assistantTurnCap {
					content = clip(content, assistantTurnCap) + "..."
				}
				text = "**Assistant:** " + content
			}
		default:
			// tool calls and unknown roles: too verbose, skip
		}

		if text != "" {
			parts = append(parts, text)
			totalChars += len(text)
		}
	}

	if len(parts) == 0 {
		return "(empty transcript)"
	}
	return strings.Join(parts, "\n\n")
}
