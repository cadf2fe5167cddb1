// Package config loads the kontext configuration. The Config value is
// built once at process entry and passed down by reference; core
// components never read environment or filesystem state directly.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete kontext configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	// Repo is the originating-repository identifier ("owner/repo")
	// stamped on every extracted source.
	Repo string `json:"repo" mapstructure:"repo"`

	Extraction ExtractionConfig `json:"extraction" mapstructure:"extraction"`
	Query      QueryConfig      `json:"query" mapstructure:"query"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`

	// APIKey for the completion capability. Never persisted; resolved
	// from the environment by LoadConfig only.
	APIKey string `json:"-" mapstructure:"-"`
}

// ExtractionConfig controls the extraction pipeline
type ExtractionConfig struct {
	Model          string `json:"model" mapstructure:"model"`
	MaxTokens      int    `json:"maxTokens" mapstructure:"maxTokens"`
	MaxRetries     int    `json:"maxRetries" mapstructure:"maxRetries"`
	RetryBaseDelay int    `json:"retryBaseDelayMs" mapstructure:"retryBaseDelayMs"`
}

// QueryConfig controls retrieval caps
type QueryConfig struct {
	QuestionLimit   int `json:"questionLimit" mapstructure:"questionLimit"`
	ValidationLimit int `json:"validationLimit" mapstructure:"validationLimit"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

const currentConfigVersion = 1

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  currentConfigVersion,
		RepoRoot: ".",
		Extraction: ExtractionConfig{
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      2048,
			MaxRetries:     3,
			RetryBaseDelay: 2000,
		},
		Query: QueryConfig{
			QuestionLimit:   15,
			ValidationLimit: 20,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .kontext/config.json, falling back
// to defaults when no config file exists. The API key comes from the
// KONTEXT_API_KEY or ANTHROPIC_API_KEY environment variables.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", currentConfigVersion)
	v.SetDefault("repoRoot", ".")
	v.SetDefault("extraction.model", "claude-sonnet-4-20250514")
	v.SetDefault("extraction.maxTokens", 2048)
	v.SetDefault("extraction.maxRetries", 3)
	v.SetDefault("extraction.retryBaseDelayMs", 2000)
	v.SetDefault("query.questionLimit", 15)
	v.SetDefault("query.validationLimit", 20)
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.level", "info")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".kontext"))

	cfg := DefaultConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	} else {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	cfg.APIKey = os.Getenv("KONTEXT_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	return cfg, nil
}

// Save writes the configuration to .kontext/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".kontext")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != currentConfigVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Extraction.MaxRetries < 1 {
		return &ConfigError{Field: "extraction.maxRetries", Message: "must be at least 1"}
	}
	if c.Query.QuestionLimit < 1 || c.Query.ValidationLimit < 1 {
		return &ConfigError{Field: "query", Message: "candidate limits must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
