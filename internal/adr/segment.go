// Package adr parses structured decision records. Segmentation is pure
// text processing: no I/O, never an error. Records that yield no
// recognized sections are routed to the LLM extraction path instead.
package adr

import (
	"regexp"
	"sort"
	"strings"
)

// Canonical section names recognized in decision records
const (
	SectionStatus       = "status"
	SectionContext      = "context"
	SectionDecision     = "decision"
	SectionConsequences = "consequences"
	SectionAlternatives = "alternatives"
)

// sectionPatterns maps canonical section names to heading patterns.
// Covers Nygard-style records (Status/Context/Decision/Consequences)
// and MADR-style records (Considered Options / Decision Outcome).
var sectionPatterns = map[string][]*regexp.Regexp{
	SectionStatus: {
		regexp.MustCompile(`(?im)^##\s*Status\s*$`),
	},
	SectionContext: {
		regexp.MustCompile(`(?im)^##\s*Context(?:\s+and\s+Problem\s+Statement)?\s*$`),
	},
	SectionDecision: {
		regexp.MustCompile(`(?im)^##\s*Decision(?:\s+Outcome)?\s*$`),
		regexp.MustCompile(`(?im)^##\s*Chosen\s+Option\s*$`),
	},
	SectionConsequences: {
		regexp.MustCompile(`(?im)^##\s*Consequences\s*$`),
	},
	SectionAlternatives: {
		regexp.MustCompile(`(?im)^##\s*(?:Considered\s+)?Options?\s*$`),
		regexp.MustCompile(`(?im)^##\s*Alternatives(?:\s+Considered)?\s*$`),
	},
}

type headingMatch struct {
	name  string
	start int
	end   int
}

// Segment parses decision-record content into named sections. Every
// recognized heading is located, matches are ordered by document offset,
// and text is sliced between consecutive headings. If a section name
// recurs only the first occurrence is kept. No recognized heading at
// all returns an empty map, which signals an unstructured document.
func Segment(content string) map[string]string {
	sections := make(map[string]string)

	var matches []headingMatch
	for name, patterns := range sectionPatterns {
		for _, pattern := range patterns {
			for _, loc := range pattern.FindAllStringIndex(content, -1) {
				matches = append(matches, headingMatch{name: name, start: loc[0], end: loc[1]})
			}
		}
	}

	if len(matches) == 0 {
		return sections
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	for i, m := range matches {
		var text string
		if i+1 < len(matches) {
			text = content[m.end:matches[i+1].start]
		} else {
			text = content[m.end:]
		}

		if _, exists := sections[m.name]; !exists {
			sections[m.name] = strings.TrimSpace(text)
		}
	}

	return sections
}

var (
	titlePattern       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	titlePrefixPattern = regexp.MustCompile(`^(?:(?i:ADR)[-\s]*\d+[:\s]*|\d+\.\s*)`)
)

// UntitledRecord is the title placeholder for records with no usable heading
const UntitledRecord = "Untitled Decision Record"

// ExtractTitle returns the H1 title stripped of record-number prefixes
// like "ADR-001:" or "1.", falling back to the first non-blank line.
func ExtractTitle(content string) string {
	if m := titlePattern.FindStringSubmatch(content); len(m) > 1 {
		title := strings.TrimSpace(m[1])
		title = titlePrefixPattern.ReplaceAllString(title, "")
		return strings.TrimSpace(title)
	}

	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return UntitledRecord
}

// maxSummaryLen bounds decision summaries built from section text
const maxSummaryLen = 300

// BuildSummary returns the first paragraph of the decision section,
// truncated with an ellipsis, or the title when no decision section exists.
func BuildSummary(sections map[string]string, title string) string {
	decision := sections[SectionDecision]
	if decision == "" {
		return title
	}

	firstPara := strings.TrimSpace(strings.SplitN(decision, "\n\n", 2)[0])
	if len(firstPara) <= maxSummaryLen {
		return firstPara
	}
	return firstPara[:maxSummaryLen-3] + "..."
}

var listItemPattern = regexp.MustCompile(`(?m)^\s*(?:[-*]|\d+\.)\s+(.+)$`)

// ExtractAlternatives pulls bulleted or numbered list items from the
// alternatives section text.
func ExtractAlternatives(text string) []string {
	if text == "" {
		return nil
	}

	var alternatives []string
	for _, m := range listItemPattern.FindAllStringSubmatch(text, -1) {
		if item := strings.TrimSpace(m[1]); item != "" {
			alternatives = append(alternatives, item)
		}
	}
	return alternatives
}

var datePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// ExtractDate returns the first ISO date substring found, or ""
func ExtractDate(content string) string {
	if m := datePattern.FindStringSubmatch(content); len(m) > 1 {
		return m[1]
	}
	return ""
}
