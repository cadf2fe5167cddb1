package extract

// prDecisionPrompt asks the model to find deliberate technical choices
// in a pull request. Most PRs are routine and should yield nothing.
const prDecisionPrompt = `You are an engineering decision extractor. Analyze the following GitHub Pull Request and determine if it contains any significant engineering decisions.

A "decision" is a deliberate technical choice that affects the system's architecture, technology stack, design patterns, or approach. Examples:
- Choosing a database, framework, or library
- Adopting or rejecting an architectural pattern (microservices, event-driven, etc.)
- Making a tradeoff between competing concerns (performance vs. simplicity, etc.)
- Deciding on a data model or API design approach
- Choosing to take on or pay off technical debt

Most PRs do NOT contain decisions. Routine bug fixes, feature implementations that follow existing patterns, dependency updates, and documentation changes are NOT decisions. Be selective — only extract decisions that a future developer or AI agent would need to know about to understand why the system is built the way it is.

## PR Content

**Title:** %s
**PR Number:** #%d

**Description:**
%s

**Review Comments:**
%s

**Commit Messages:**
%s

## Instructions

Respond with a JSON object. If there are no significant decisions, return:
{"decisions": []}

If there ARE decisions, return:
{"decisions": [
  {
    "summary": "One sentence describing what was decided",
    "reasoning": "Why this decision was made, including tradeoffs considered",
    "alternatives": ["Alternative 1 that was considered or rejected", "Alternative 2"],
    "entities": [
      {"name": "technology or concept name", "entity_type": "technology|pattern|service|library"}
    ],
    "confidence": "high|medium|low"
  }
]}

Confidence levels:
- high: Decision is explicitly stated and discussed
- medium: Decision is implied by the changes and discussion
- low: Decision might be inferred but isn't clearly stated

Respond ONLY with valid JSON, no other text.`

// docDecisionPrompt covers docs that are not formal decision records
// (ARCHITECTURE.md, strategy documents). A single document may contain
// many decisions.
const docDecisionPrompt = `You are an engineering decision extractor. Analyze the following documentation file from a software project and extract any significant engineering or product decisions.

A "decision" is a deliberate choice that affects the system's architecture, technology stack, design patterns, strategy, or approach. Examples:
- Choosing a specific technology (database, framework, language, cloud provider)
- Adopting an architectural pattern (monolith, microservices, event-driven)
- Defining a product strategy or phased approach
- Making a tradeoff between competing concerns
- Defining data models or API design approaches
- Choosing between build vs. buy

Extract EACH distinct decision separately. A single document may contain many decisions.

## Document

**File:** %s

**Content:**
%s

## Instructions

Respond with a JSON object:
{"decisions": [
  {
    "summary": "One sentence describing what was decided",
    "reasoning": "Why this decision was made, including tradeoffs",
    "alternatives": ["Alternative that was considered or rejected"],
    "entities": [
      {"name": "technology or concept name", "entity_type": "technology|pattern|service|library"}
    ],
    "confidence": "high|medium|low"
  }
]}

If the document contains no engineering decisions, return {"decisions": []}.

Be thorough — a strategy document or architecture doc may contain 5-10+ distinct decisions.
Respond ONLY with valid JSON, no other text.`

// sessionDecisionPrompt is tuned for agent transcripts: long,
// conversational, with implicit choices buried in implementation work.
const sessionDecisionPrompt = `You are an engineering decision extractor. Analyze the following AI agent session transcript and extract any significant engineering decisions that were made.

This is a transcript from an AI coding agent working on a codebase. The agent and user discussed and implemented changes. Your job is to find moments where a technical choice was made that affects the system's architecture, technology stack, patterns, or approach.

Look for decisions like:
- Choosing a library, framework, or tool
- Adopting an architectural pattern or design approach
- Making a tradeoff (performance vs. simplicity, etc.)
- Choosing a data model or API design
- Deciding on a testing strategy or deployment approach
- Choosing between build vs. buy

Ignore routine implementation details — focus on choices that a future developer or AI agent would need to know about to understand WHY the system is built the way it is.

## Session Info

**Agent:** %s
**Branch:** %s
**Initial Prompt:** %s
**Files Touched:** %s
**Session Summary:** %s

## Transcript (condensed)

%s

## Instructions

Respond with a JSON object:
{"decisions": [
  {
    "summary": "One sentence describing what was decided",
    "reasoning": "Why this choice was made, including tradeoffs discussed",
    "alternatives": ["Alternative that was considered or rejected"],
    "entities": [
      {"name": "technology or concept name", "entity_type": "technology|pattern|service|library"}
    ],
    "confidence": "high|medium|low"
  }
]}

If the session contains no engineering decisions (e.g., just a bug fix following existing patterns), return {"decisions": []}.

Confidence levels:
- high: Decision was explicitly discussed and agreed upon
- medium: Decision was made implicitly by the agent's implementation choice
- low: Decision might be inferred but wasn't directly addressed

Respond ONLY with valid JSON, no other text.`

// learningPrompt extracts operational knowledge rather than decisions:
// WHAT happened and what to watch out for, not WHY.
const learningPrompt = `You are a session knowledge extractor. Analyze the following AI coding session transcript and extract practical learnings: bugs that were fixed, gotchas that were discovered, and features that were implemented.

This is a transcript from an AI coding agent working on a codebase. Your job is to find actionable knowledge that would help a future developer or AI agent working in the same codebase.

Extract three categories of learnings:

**bug_fix** — A bug that was identified and fixed:
- What were the symptoms?
- What was the root cause?
- How was it fixed?
- Which files/components were involved?

**gotcha** — A non-obvious pitfall or surprising behavior discovered:
- What was surprising or unexpected?
- Why does it happen?
- What's the workaround or correct approach?

**implementation** — A feature or system that was built and is working:
- What was implemented?
- Key design choices made during implementation
- How does it work at a high level?
- Which components are involved?

Ignore routine, trivial changes (typo fixes, comment updates, formatting). Focus on knowledge that would save time if someone encounters the same area again.

## Session Info

%s

## Transcript

%s

## Instructions

Respond with a JSON object:
{"learnings": [
  {
    "category": "bug_fix|gotcha|implementation",
    "summary": "One sentence describing what was learned",
    "detail": "Full context: root cause, fix, key details a future developer needs",
    "components": ["path/to/file.go", "module_name"],
    "entities": [
      {"name": "technology or concept", "entity_type": "technology|pattern|service|library"}
    ]
  }
]}

If the session contains no meaningful learnings (e.g., just exploration or reading code), return {"learnings": []}.

Respond ONLY with valid JSON, no other text.`
