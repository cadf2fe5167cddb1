package adr

import (
	"regexp"
	"strings"

	"kontext/internal/model"
)

// Lightweight keyword tagging for structured records. The PR and doc
// extractors get richer entities from the model; for decision records
// the structured format gives enough signal with dictionary matching.
var technologyKeywords = []string{
	"postgresql", "postgres", "mysql", "mongodb", "sqlite", "redis",
	"elasticsearch", "dynamodb", "cassandra",
	"react", "vue", "angular", "svelte", "next.js", "nextjs",
	"django", "flask", "fastapi", "express", "spring", "rails",
	"docker", "kubernetes", "k8s", "terraform",
	"aws", "gcp", "azure",
	"graphql", "grpc", "rest", "kafka", "rabbitmq",
	"typescript", "python", "java", "go", "rust", "node.js", "nodejs",
}

var patternKeywords = []string{
	"microservice", "monolith", "serverless", "event-driven",
	"cqrs", "event sourcing", "saga", "circuit breaker",
	"api gateway", "pub/sub", "message queue",
}

type keywordMatcher struct {
	name    string
	kind    model.EntityType
	pattern *regexp.Regexp
}

var keywordMatchers = buildKeywordMatchers()

func buildKeywordMatchers() []keywordMatcher {
	matchers := make([]keywordMatcher, 0, len(technologyKeywords)+len(patternKeywords))
	add := func(keyword string, kind model.EntityType) {
		// Word boundaries prevent false positives like "go" inside "mongodb".
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
		matchers = append(matchers, keywordMatcher{name: keyword, kind: kind, pattern: pattern})
	}

	for _, kw := range technologyKeywords {
		add(kw, model.EntityTechnology)
	}
	for _, kw := range patternKeywords {
		add(kw, model.EntityPattern)
	}
	return matchers
}

// TagEntities finds known technology and pattern keywords in text using
// case-insensitive, word-boundary matching.
func TagEntities(text string) []model.Entity {
	lower := strings.ToLower(text)

	var entities []model.Entity
	seen := make(map[string]bool)
	for _, m := range keywordMatchers {
		if seen[m.name] {
			continue
		}
		if m.pattern.MatchString(lower) {
			seen[m.name] = true
			entities = append(entities, model.Entity{Name: m.name, Type: m.kind})
		}
	}
	return entities
}
