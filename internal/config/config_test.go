package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Extraction.Model == "" {
		t.Error("Extraction model should have a default")
	}
	if cfg.Extraction.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Extraction.MaxRetries)
	}
	if cfg.Query.QuestionLimit != 15 {
		t.Errorf("QuestionLimit = %d, want 15", cfg.Query.QuestionLimit)
	}
	if cfg.Query.ValidationLimit != 20 {
		t.Errorf("ValidationLimit = %d, want 20", cfg.Query.ValidationLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig with no config file should fall back to defaults: %v", err)
	}
	if cfg.Extraction.Model != DefaultConfig().Extraction.Model {
		t.Errorf("Expected default model, got %q", cfg.Extraction.Model)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Repo = "acme/widgets"
	cfg.Extraction.MaxTokens = 1024

	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".kontext", "config.json")); err != nil {
		t.Fatalf("config.json was not written: %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Repo != "acme/widgets" {
		t.Errorf("Repo = %q, want acme/widgets", loaded.Repo)
	}
	if loaded.Extraction.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want 1024", loaded.Extraction.MaxTokens)
	}
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("KONTEXT_API_KEY", "key-from-env")

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q, want key-from-env", cfg.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extraction.MaxRetries = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject zero retries")
	}

	cfg = DefaultConfig()
	cfg.Version = 99
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject unknown config versions")
	}
}
