package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kontext/internal/kerrors"
	"kontext/internal/llm"
	"kontext/internal/logging"
	"kontext/internal/storage"
)

const synthesisMaxTokens = 1024

// Chat history is bounded before it reaches the prompt: only the most
// recent turns are kept and each turn is truncated individually.
const (
	historyTurnCap    = 10
	historyTurnBudget = 500
)

const noCoverageAnswer = "No relevant engineering decisions found for this question. " +
	"The repository may not have decisions related to this topic, " +
	"or extraction hasn't been run yet."

const synthesisPrompt = `You are a senior engineering advisor for a software team. You have access to the team's documented engineering decisions extracted from their codebase, PRs, ADRs, and documentation.

Your job is to answer questions in a way that helps the person (or AI agent) make the RIGHT implementation choice — one that's consistent with the team's existing decisions.
%s
## Question
%s

## Team's Engineering Decisions
%s

## Instructions

Determine the type of question and respond accordingly:

**If it's a "why" question** (why did we choose X?):
- Explain the decision, reasoning, and what alternatives were rejected
- Reference specific sources

**If it's a "how should I" question** (how should I add caching / build a new endpoint / etc.):
- Frame existing decisions as CONSTRAINTS and GUIDELINES for the implementation
- Be specific: "Use FastAPI for the endpoint, PostgreSQL for storage, and follow the dependency injection pattern for auth" — not vague generalities
- Warn about approaches that would CONTRADICT existing decisions
- If the team rejected an alternative, explain why so the person doesn't re-propose it

**If it's a "what" question** (what database do we use? what's the architecture?):
- Provide a clear, factual summary from the decisions

**For all responses:**
- Be direct and actionable — this output may be consumed by an AI coding agent
- Reference source links so decisions can be verified
- If decisions don't cover the topic, say so clearly — don't make up guidance
- If decisions contradict each other, note the conflict and which is more recent
`

// HistoryTurn is one prior exchange in a multi-turn conversation
type HistoryTurn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// QueryResult is a synthesized answer with the decisions it drew on
type QueryResult struct {
	Question        string                   `json:"question"`
	Answer          string                   `json:"answer"`
	Decisions       []storage.DecisionRecord `json:"decisions"`
	SourcesSearched int                      `json:"sourcesSearched"`
}

// Text renders the result for terminal output
func (r QueryResult) Text() string {
	lines := []string{r.Answer, ""}
	if len(r.Decisions) > 0 {
		lines = append(lines, "Sources:")
		for _, d := range r.Decisions {
			lines = append(lines, fmt.Sprintf("  - [%s] %s", d.Confidence, d.Summary))
			if d.SourceURL != "" {
				lines = append(lines, "    "+d.SourceURL)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Engine answers questions by retrieving relevant decisions and
// synthesizing guidance over them
type Engine struct {
	retriever *Retriever
	completer llm.Completer
	logger    *logging.Logger
	policy    llm.RetryPolicy
}

// NewEngine creates a query engine
func NewEngine(repo *storage.Repository, completer llm.Completer, logger *logging.Logger, policy llm.RetryPolicy) *Engine {
	return &Engine{
		retriever: NewRetriever(repo),
		completer: completer,
		logger:    logger,
		policy:    policy,
	}
}

// Answer answers a single question using stored decisions
func (e *Engine) Answer(ctx context.Context, question string) (QueryResult, error) {
	return e.answer(ctx, question, nil)
}

// Chat answers a question in the context of a running conversation.
// Only the most recent turns of history reach the prompt.
func (e *Engine) Chat(ctx context.Context, question string, history []HistoryTurn) (QueryResult, error) {
	return e.answer(ctx, question, history)
}

func (e *Engine) answer(ctx context.Context, question string, history []HistoryTurn) (QueryResult, error) {
	decisions, err := e.retriever.ForQuestion(question)
	if err != nil {
		return QueryResult{}, err
	}

	// No candidates: fixed answer, never call the model
	if len(decisions) == 0 {
		return QueryResult{
			Question: question,
			Answer:   noCoverageAnswer,
		}, nil
	}

	answer := e.synthesize(ctx, question, history, decisions)

	return QueryResult{
		Question:        question,
		Answer:          answer,
		Decisions:       decisions,
		SourcesSearched: len(decisions),
	}, nil
}

// synthesize calls the model with retry and degrades to an explanatory
// message on failure, never an error
func (e *Engine) synthesize(ctx context.Context, question string, history []HistoryTurn, decisions []storage.DecisionRecord) string {
	prompt := fmt.Sprintf(synthesisPrompt,
		formatHistory(history),
		question,
		formatForSynthesis(decisions),
	)

	response, err := llm.CallWithBackoff(ctx, e.logger, e.policy, func() (string, error) {
		return e.completer.Complete(ctx, prompt, synthesisMaxTokens)
	})
	if err != nil {
		e.logger.Error("Answer synthesis failed", map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, kerrors.ErrRateLimited) {
			return "Unable to synthesize answer: API rate limit exceeded. Try again later."
		}
		return fmt.Sprintf("Unable to synthesize answer due to an API error: %v", err)
	}

	return strings.TrimSpace(response)
}

// formatHistory renders a bounded conversation preamble, or "" when
// there is no history
func formatHistory(history []HistoryTurn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyTurnCap {
		history = history[len(history)-historyTurnCap:]
	}

	var parts []string
	parts = append(parts, "\n## Conversation So Far")
	for _, turn := range history {
		content := turn.Content
		if len(content) > historyTurnBudget {
			content = clipRunes(content, historyTurnBudget) + "..."
		}
		parts = append(parts, fmt.Sprintf("**%s:** %s", turn.Role, content))
	}
	return strings.Join(parts, "\n") + "\n"
}
