package extract

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"kontext/internal/llm"
	"kontext/internal/logging"
	"kontext/internal/model"
)

// Character budgets for prompt construction. Oversized raw text is
// truncated before prompting to respect model context limits.
const (
	docContentBudget     = 12000
	transcriptBudget     = 15000
	reviewCommentsBudget = 3000
	commitMessagesCap    = 10
	assistantTurnCap     = 500
	rawPreviewCap        = 5000
)

// Per-kind completion budgets. Sessions can surface many records.
const (
	prMaxTokens      = 1024
	docMaxTokens     = 2048
	sessionMaxTokens = 2048
)

// Pipeline extracts decisions and learnings from raw source items.
// One completion request is issued per item, never batched across
// items: batching risks cross-contaminating extraction quality.
type Pipeline struct {
	completer llm.Completer
	logger    *logging.Logger
	policy    llm.RetryPolicy
}

// NewPipeline creates an extraction pipeline
func NewPipeline(completer llm.Completer, logger *logging.Logger, policy llm.RetryPolicy) *Pipeline {
	return &Pipeline{
		completer: completer,
		logger:    logger,
		policy:    policy,
	}
}

// complete issues one completion with the shared backoff policy
func (p *Pipeline) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return llm.CallWithBackoff(ctx, p.logger, p.policy, func() (string, error) {
		return p.completer.Complete(ctx, prompt, maxTokens)
	})
}

// ExtractPR analyzes a single pull request for engineering decisions.
// The source is built before any model call so a failed extraction
// still records that the PR was inspected.
func (p *Pipeline) ExtractPR(ctx context.Context, pr PRItem, repo string) (model.Source, []model.Decision) {
	source := model.Source{
		ID:         fmt.Sprintf("pr:%d", pr.Number),
		Kind:       model.SourcePR,
		Repo:       repo,
		URL:        pr.URL,
		Title:      pr.Title,
		RawContent: buildPRText(pr),
		FetchedAt:  time.Now(),
	}

	body := pr.Body
	if body == "" {
		body = "(no description)"
	}
	prompt := fmt.Sprintf(prDecisionPrompt,
		pr.Title, pr.Number, body,
		formatComments(pr.ReviewComments),
		formatCommits(pr.CommitMessages),
	)

	text, err := p.complete(ctx, prompt, prMaxTokens)
	if err != nil {
		p.logger.Error("PR extraction failed", map[string]interface{}{
			"source": source.ID,
			"error":  err.Error(),
		})
		return source, nil
	}

	return source, p.parseDecisions(text, source.ID, pr.MergedAt)
}

// ExtractDoc analyzes a documentation file for engineering decisions
func (p *Pipeline) ExtractDoc(ctx context.Context, doc DocItem, repo string) (model.Source, []model.Decision) {
	source := model.Source{
		ID:         "doc:" + doc.Path,
		Kind:       model.SourceDoc,
		Repo:       repo,
		URL:        doc.URL,
		Title:      docTitle(doc.Content, doc.Path),
		RawContent: doc.Content,
		FetchedAt:  time.Now(),
	}

	content := doc.Content
	if len(content) > docContentBudget {
		content = clip(content, docContentBudget) + "\n\n[... truncated ...]"
	}
	prompt := fmt.Sprintf(docDecisionPrompt, doc.Path, content)

	text, err := p.complete(ctx, prompt, docMaxTokens)
	if err != nil {
		p.logger.Error("Doc extraction failed", map[string]interface{}{
			"source": source.ID,
			"error":  err.Error(),
		})
		return source, nil
	}

	return source, p.parseDecisions(text, source.ID, "")
}

// ExtractSession analyzes an agent session transcript for engineering decisions
func (p *Pipeline) ExtractSession(ctx context.Context, session SessionItem, repo string) (model.Source, []model.Decision) {
	condensed := CondenseTranscript(session.Transcript, transcriptBudget)

	source := model.Source{
		ID:         "session:" + session.CheckpointID,
		Kind:       model.SourceSession,
		Repo:       repo,
		URL:        "", // sessions have no canonical URL
		Title:      sessionTitle(session),
		RawContent: buildSessionText(session, condensed),
		FetchedAt:  time.Now(),
	}

	prompt := fmt.Sprintf(sessionDecisionPrompt,
		session.Agent,
		session.Branch,
		orPlaceholder(session.Prompt, "(no prompt recorded)"),
		filesTouchedLine(session.FilesTouched),
		orPlaceholder(session.Summary, "(no summary)"),
		condensed,
	)

	text, err := p.complete(ctx, prompt, sessionMaxTokens)
	if err != nil {
		p.logger.Error("Session extraction failed", map[string]interface{}{
			"source": source.ID,
			"error":  err.Error(),
		})
		return source, nil
	}

	return source, p.parseDecisions(text, source.ID, "")
}

// ExtractLearnings analyzes a session transcript for operational
// learnings: bug fixes, gotchas, and implementations.
func (p *Pipeline) ExtractLearnings(ctx context.Context, session SessionItem, repo string) (model.Source, []model.Learning) {
	condensed := CondenseTranscript(session.Transcript, transcriptBudget)

	sessionID := session.SessionID
	if sessionID == "" {
		sessionID = model.NewID()[:12]
	}

	raw := clip(condensed, rawPreviewCap)

	source := model.Source{
		ID:         "learning:" + sessionID,
		Kind:       model.SourceLearn,
		Repo:       repo,
		URL:        "",
		Title:      sessionTitle(session),
		RawContent: raw, // store a preview, not the full transcript
		FetchedAt:  time.Now(),
	}

	prompt := fmt.Sprintf(learningPrompt, sessionInfo(session), condensed)

	text, err := p.complete(ctx, prompt, sessionMaxTokens)
	if err != nil {
		p.logger.Error("Learning extraction failed", map[string]interface{}{
			"source": source.ID,
			"error":  err.Error(),
		})
		return source, nil
	}

	return source, p.parseLearnings(text, source.ID)
}

// buildPRText builds the full text representation of a PR for storage
func buildPRText(pr PRItem) string {
	parts := []string{fmt.Sprintf("# %s\n", pr.Title)}
	if pr.Body != "" {
		parts = append(parts, pr.Body)
	}
	if len(pr.ReviewComments) > 0 {
		parts = append(parts, "\n## Review Comments\n")
		limit := len(pr.ReviewComments)
		if limit > 10 {
			limit = 10
		}
		for _, c := range pr.ReviewComments[:limit] {
			parts = append(parts, "- "+c)
		}
	}
	return strings.Join(parts, "\n")
}

func formatComments(comments []string) string {
	if len(comments) == 0 {
		return "(no review comments)"
	}

	var formatted []string
	totalChars := 0
	for _, comment := range comments {
		if totalChars > reviewCommentsBudget {
			formatted = append(formatted, fmt.Sprintf("... (%d more comments)", len(comments)-len(formatted)))
			break
		}
		formatted = append(formatted, "- "+comment)
		totalChars += len(comment)
	}
	return strings.Join(formatted, "\n")
}

func formatCommits(messages []string) string {
	if len(messages) == 0 {
		return "(no commit messages)"
	}
	if len(messages) > commitMessagesCap {
		messages = messages[:commitMessagesCap]
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, "- "+msg)
	}
	return strings.Join(lines, "\n")
}

// docTitle extracts the H1 title or falls back to a name derived from the path
func docTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}

	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".md")
	return strings.ReplaceAll(base, "-", " ")
}

func sessionTitle(session SessionItem) string {
	agent := orPlaceholder(session.Agent, "unknown")

	if session.Prompt != "" {
		firstLine := strings.TrimSpace(strings.SplitN(session.Prompt, "\n", 2)[0])
		return fmt.Sprintf("[%s] %s", agent, truncate(firstLine, 80))
	}
	if session.Summary != "" {
		return fmt.Sprintf("[%s] %s", agent, truncate(session.Summary, 80))
	}

	id := session.CheckpointID
	if id == "" {
		id = session.SessionID
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("[%s] Session %s", agent, id)
}

func buildSessionText(session SessionItem, condensed string) string {
	parts := []string{
		"Agent: " + session.Agent,
		"Branch: " + session.Branch,
	}
	if session.Prompt != "" {
		parts = append(parts, "\n## Prompt\n"+session.Prompt)
	}
	if session.Summary != "" {
		parts = append(parts, "\n## Summary\n"+session.Summary)
	}
	if len(session.FilesTouched) > 0 {
		var files []string
		for _, f := range session.FilesTouched {
			files = append(files, "- "+f)
		}
		parts = append(parts, "\n## Files Touched\n"+strings.Join(files, "\n"))
	}
	parts = append(parts, "\n## Transcript (condensed)\n"+condensed)
	return strings.Join(parts, "\n")
}

func sessionInfo(session SessionItem) string {
	var parts []string
	if session.Agent != "" {
		parts = append(parts, "**Agent:** "+session.Agent)
	}
	if session.Branch != "" {
		parts = append(parts, "**Branch:** "+session.Branch)
	}
	if session.Prompt != "" {
		parts = append(parts, "**Initial Prompt:** "+truncate(session.Prompt, 200))
	}
	if session.Summary != "" {
		parts = append(parts, "**Summary:** "+truncate(session.Summary, 200))
	}
	if len(session.FilesTouched) > 0 {
		parts = append(parts, "**Files Touched:** "+filesTouchedLine(session.FilesTouched))
	}
	if len(parts) == 0 {
		return "(no session metadata available)"
	}
	return strings.Join(parts, "\n")
}

func filesTouchedLine(files []string) string {
	if len(files) == 0 {
		return "(none)"
	}
	if len(files) > 20 {
		files = files[:20]
	}
	return strings.Join(files, ", ")
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return clip(s, max-3) + "..."
}

// clip cuts s to at most max bytes, backing up so a multi-byte rune is
// never split
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
