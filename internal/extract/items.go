// Package extract turns raw source artifacts into decisions and
// learnings. Each source kind is one instantiation of the same shape:
// build the source record eagerly, prompt the model once per item, and
// defensively parse the response. A failed item contributes zero
// records; it never aborts the batch.
package extract

// PRItem is a fetched pull request, as supplied by a fetcher collaborator
type PRItem struct {
	Number         int
	Title          string
	Body           string
	URL            string
	ReviewComments []string
	CommitMessages []string
	MergedAt       string // ISO date, may be empty
}

// DocItem is a fetched documentation or decision-record file
type DocItem struct {
	Path    string
	URL     string
	Content string
}

// Turn roles in a session transcript
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one message in a session transcript
type Turn struct {
	Role string
	Text string
}

// SessionItem is a fetched AI-agent session transcript
type SessionItem struct {
	CheckpointID string
	SessionID    string
	Agent        string
	Branch       string
	Prompt       string
	Summary      string
	FilesTouched []string
	Transcript   []Turn
}
