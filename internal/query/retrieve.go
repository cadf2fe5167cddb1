// Package query turns free-text questions and proposed approaches into
// ranked candidate decisions, then synthesizes answers or structured
// conflict verdicts over them.
package query

import (
	"strings"
	"unicode"

	"kontext/internal/storage"
)

// Candidate caps bound the downstream prompt size. Validation casts a
// wider net than question answering because it wants to catch every
// potential conflict.
const (
	questionCandidateCap   = 15
	validationCandidateCap = 20

	questionSearchLimit   = 10
	validationSearchLimit = 15

	questionFallbackLimit   = 10
	validationFallbackLimit = 15

	// Below this many candidates, validation broadens to recent
	// decisions even though the targeted strategies found something
	validationMinCandidates = 3
)

// questionStopWords are interrogative and auxiliary words stripped from
// questions before building a full-text query
var questionStopWords = map[string]bool{
	"why": true, "did": true, "we": true, "the": true, "a": true, "an": true,
	"is": true, "are": true, "was": true, "were": true,
	"do": true, "does": true, "how": true, "what": true, "when": true,
	"where": true, "which": true, "who": true,
	"our": true, "their": true, "this": true, "that": true, "for": true,
	"with": true, "from": true, "about": true,
	"use": true, "using": true, "used": true, "choose": true, "chose": true,
	"chosen": true, "pick": true, "picked": true, "decide": true,
	"decided": true, "should": true, "would": true, "could": true,
	"have": true, "has": true, "had": true, "not": true, "and": true,
	"or": true, "but": true, "in": true, "on": true,
	"to": true, "of": true, "it": true, "its": true, "be": true,
	"been": true, "being": true,
}

// validationStopWords cover the planning vocabulary typical of proposed
// approaches ("I plan to add...", "going to build...")
var validationStopWords = map[string]bool{
	"i": true, "plan": true, "to": true, "will": true, "am": true,
	"going": true, "want": true, "need": true,
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true,
	"do": true, "does": true, "did": true, "have": true, "has": true,
	"had": true, "this": true, "that": true,
	"for": true, "with": true, "from": true, "about": true, "use": true,
	"using": true, "add": true,
	"new": true, "create": true, "build": true, "implement": true,
	"make": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "of": true, "it": true,
	"its": true, "we": true, "our": true, "not": true,
}

// Retriever finds decisions relevant to a free-text query using layered
// strategies: full-text search, then entity-name matching, then a
// recency fallback.
type Retriever struct {
	repo *storage.Repository
}

// NewRetriever creates a retriever over the given repository
func NewRetriever(repo *storage.Repository) *Retriever {
	return &Retriever{repo: repo}
}

// ForQuestion finds decisions relevant to a question. The recency
// fallback fires only when the targeted strategies found nothing.
func (r *Retriever) ForQuestion(question string) ([]storage.DecisionRecord, error) {
	return r.findRelevant(question, questionStopWords,
		questionSearchLimit, questionFallbackLimit, 1, questionCandidateCap)
}

// ForValidation finds decisions relevant to a proposed approach. The
// fallback fires whenever fewer than three candidates were found, so a
// thin match never hides a conflict elsewhere.
func (r *Retriever) ForValidation(approach string) ([]storage.DecisionRecord, error) {
	return r.findRelevant(approach, validationStopWords,
		validationSearchLimit, validationFallbackLimit, validationMinCandidates, validationCandidateCap)
}

// findRelevant unions the strategy results in presentation order:
// full-text rank first, then entity-matched, then fallback. Each record
// appears once; the store already orders within each strategy.
func (r *Retriever) findRelevant(text string, stopWords map[string]bool, searchLimit, fallbackLimit, minCandidates, maxResults int) ([]storage.DecisionRecord, error) {
	seen := make(map[string]bool)
	var results []storage.DecisionRecord

	// Strategy 1: full-text search
	if ftsQuery := BuildFTSQuery(text, stopWords); ftsQuery != "" {
		matches, err := r.repo.SearchDecisions(ftsQuery, searchLimit)
		if err != nil {
			return nil, err
		}
		for _, d := range matches {
			if !seen[d.ID] {
				seen[d.ID] = true
				results = append(results, d)
			}
		}
	}

	// Strategy 2: known entity names appearing in the query text
	entities, err := r.matchEntities(text)
	if err != nil {
		return nil, err
	}
	for _, entity := range entities {
		matches, err := r.repo.DecisionsByEntity(entity)
		if err != nil {
			return nil, err
		}
		for _, d := range matches {
			if !seen[d.ID] {
				seen[d.ID] = true
				results = append(results, d)
			}
		}
	}

	// Strategy 3: recency fallback
	if len(results) < minCandidates {
		recent, err := r.repo.AllDecisions("", "", fallbackLimit)
		if err != nil {
			return nil, err
		}
		for _, d := range recent {
			if !seen[d.ID] {
				seen[d.ID] = true
				results = append(results, d)
			}
		}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// matchEntities returns known entity names that appear as a substring
// of the lowercased query text
func (r *Retriever) matchEntities(text string) ([]string, error) {
	known, err := r.repo.Entities()
	if err != nil {
		return nil, err
	}

	textLower := strings.ToLower(text)
	var matched []string
	for _, e := range known {
		if strings.Contains(textLower, strings.ToLower(e.Name)) {
			matched = append(matched, e.Name)
		}
	}
	return matched, nil
}

// QuestionFTSQuery builds a full-text query from a question
func QuestionFTSQuery(text string) string {
	return BuildFTSQuery(text, questionStopWords)
}

// BuildFTSQuery converts free text into a full-text query: stop-words
// and tokens of length <= 2 are stripped, survivors are OR-joined.
// Returns "" when nothing survives.
func BuildFTSQuery(text string, stopWords map[string]bool) string {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		cleaned := stripNonAlnum(word)
		if cleaned != "" && !stopWords[cleaned] && len(cleaned) > 2 {
			words = append(words, cleaned)
		}
	}
	return strings.Join(words, " OR ")
}

func stripNonAlnum(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
