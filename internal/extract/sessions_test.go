package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSessionDir(t *testing.T, root, shard string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(shard))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestLoadSessionDirs(t *testing.T) {
	root := t.TempDir()

	writeSessionDir(t, root, "ab/cdef123456/1", map[string]string{
		"metadata.json": `{"SessionID": "sess-1", "Agent": "claude-code", "Branch": "main",
			"FilesTouched": ["internal/api/server.go"], "Summary": "Added rate limiting"}`,
		"full.jsonl": `{"role": "user", "content": "Add rate limiting to the API"}
{"role": "assistant", "content": [{"type": "text", "text": "I'll add a token bucket."}, {"type": "tool_use", "name": "edit"}]}
not json, skipped
{"role": "tool", "content": "file written"}`,
		"prompt.txt": "Add rate limiting to the API\n",
	})

	items, err := LoadSessionDirs(root)
	if err != nil {
		t.Fatalf("LoadSessionDirs: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 session, got %d", len(items))
	}

	s := items[0]
	if s.CheckpointID != "abcdef123456" {
		t.Errorf("checkpoint id = %q", s.CheckpointID)
	}
	if s.SessionID != "sess-1" || s.Agent != "claude-code" || s.Branch != "main" {
		t.Errorf("metadata not loaded: %+v", s)
	}
	if s.Prompt != "Add rate limiting to the API" {
		t.Errorf("prompt = %q", s.Prompt)
	}
	if len(s.FilesTouched) != 1 || s.FilesTouched[0] != "internal/api/server.go" {
		t.Errorf("files touched = %v", s.FilesTouched)
	}
	if len(s.Transcript) != 3 {
		t.Fatalf("expected 3 turns (malformed line skipped), got %d", len(s.Transcript))
	}
	if s.Transcript[0].Role != RoleUser || s.Transcript[0].Text != "Add rate limiting to the API" {
		t.Errorf("user turn = %+v", s.Transcript[0])
	}
	if s.Transcript[1].Text != "I'll add a token bucket." {
		t.Errorf("assistant content blocks not flattened: %q", s.Transcript[1].Text)
	}
}

func TestLoadSessionDirsSnakeCaseMetadata(t *testing.T) {
	root := t.TempDir()
	writeSessionDir(t, root, "cd/999999/1", map[string]string{
		"metadata.json": `{"session_id": "sess-2", "agent": "cursor", "branch": "feat/x",
			"files_touched": ["main.go"], "summary": "refactor"}`,
		"prompt.txt": "Refactor main",
	})

	items, err := LoadSessionDirs(root)
	if err != nil {
		t.Fatalf("LoadSessionDirs: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 session, got %d", len(items))
	}
	if items[0].Agent != "cursor" || items[0].SessionID != "sess-2" {
		t.Errorf("snake_case metadata not loaded: %+v", items[0])
	}
	if len(items[0].FilesTouched) != 1 {
		t.Errorf("files touched = %v", items[0].FilesTouched)
	}
}

func TestLoadSessionDirsSkipsEmptyAndMalformed(t *testing.T) {
	root := t.TempDir()
	// metadata only, no transcript or prompt
	writeSessionDir(t, root, "aa/111111/1", map[string]string{
		"metadata.json": `{"SessionID": "empty"}`,
	})
	// unparseable metadata
	writeSessionDir(t, root, "bb/222222/1", map[string]string{
		"metadata.json": `{broken`,
		"prompt.txt":    "hello",
	})

	items, err := LoadSessionDirs(root)
	if err != nil {
		t.Fatalf("LoadSessionDirs: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no sessions, got %d", len(items))
	}
}

func TestLoadSessionDirsMissingRoot(t *testing.T) {
	items, err := LoadSessionDirs(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing root should not error: %v", err)
	}
	if items != nil {
		t.Errorf("expected nil items, got %v", items)
	}
}
