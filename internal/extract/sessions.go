package extract

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// sessionMetadata mirrors the checkpoint metadata.json contents. Field
// names appear both TitleCase and snake_case in the wild, so loading
// tries both.
type sessionMetadata struct {
	SessionID    string   `json:"SessionID"`
	Agent        string   `json:"Agent"`
	Branch       string   `json:"Branch"`
	FilesTouched []string `json:"FilesTouched"`
	Summary      string   `json:"Summary"`

	SessionIDSnake    string   `json:"session_id"`
	AgentSnake        string   `json:"agent"`
	BranchSnake       string   `json:"branch"`
	FilesTouchedSnake []string `json:"files_touched"`
	SummarySnake      string   `json:"summary"`
}

// transcriptMessage is one line of a full.jsonl transcript. Content is
// either a plain string or an array of content blocks.
type transcriptMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Text    string          `json:"text"`
}

// LoadSessionDirs walks root for checkpoint directories, identified by
// a metadata.json file with a sibling full.jsonl or prompt.txt. Empty
// sessions and unparseable metadata are skipped, not errors.
func LoadSessionDirs(root string) ([]SessionItem, error) {
	var items []SessionItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "metadata.json" {
			return nil
		}
		item, ok := loadSessionDir(root, filepath.Dir(path))
		if ok {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return items, nil
}

func loadSessionDir(root, dir string) (SessionItem, bool) {
	raw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return SessionItem{}, false
	}
	var meta sessionMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return SessionItem{}, false
	}

	transcript := loadTranscript(filepath.Join(dir, "full.jsonl"))

	prompt := ""
	if b, err := os.ReadFile(filepath.Join(dir, "prompt.txt")); err == nil {
		prompt = strings.TrimSpace(string(b))
	}

	if len(transcript) == 0 && prompt == "" {
		return SessionItem{}, false
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = dir
	}

	item := SessionItem{
		CheckpointID: checkpointID(rel),
		SessionID:    firstNonEmpty(meta.SessionID, meta.SessionIDSnake),
		Agent:        firstNonEmpty(meta.Agent, meta.AgentSnake, "unknown"),
		Branch:       firstNonEmpty(meta.Branch, meta.BranchSnake),
		Prompt:       prompt,
		Summary:      firstNonEmpty(meta.Summary, meta.SummarySnake),
		FilesTouched: meta.FilesTouched,
		Transcript:   transcript,
	}
	if len(item.FilesTouched) == 0 {
		item.FilesTouched = meta.FilesTouchedSnake
	}
	return item, true
}

// loadTranscript parses a JSONL transcript, skipping malformed lines
func loadTranscript(path string) []Turn {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var turns []Turn
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var msg transcriptMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}
		turns = append(turns, Turn{
			Role: msg.Role,
			Text: messageText(msg),
		})
	}
	return turns
}

// messageText extracts the text of a message, handling both plain
// string content and arrays of content blocks.
func messageText(msg transcriptMessage) string {
	if len(msg.Content) > 0 {
		var s string
		if json.Unmarshal(msg.Content, &s) == nil {
			return s
		}
		var blocks []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if json.Unmarshal(msg.Content, &blocks) == nil {
			var parts []string
			for _, b := range blocks {
				if b.Type == "text" && b.Text != "" {
					parts = append(parts, b.Text)
				}
			}
			return strings.Join(parts, "\n")
		}
	}
	return msg.Text
}

// checkpointID derives a checkpoint identifier from the sharded
// directory path (XX/YYYYYYYYYY/N yields XXYYYYYYYYYY)
func checkpointID(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) >= 2 {
		return parts[0] + parts[1]
	}
	return rel
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
