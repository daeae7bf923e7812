// Package config provides configuration loading and structs for the ausdata server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Secret wraps a sensitive string so it is redacted when logged or marshalled.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return s.String() }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Model  ModelConfig  `yaml:"model"`
	Search SearchConfig `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DataConfig locates the dataset catalogue.
type DataConfig struct {
	Path string `yaml:"path"`
	// Watch reloads the catalogue when the file changes.
	Watch bool `yaml:"watch"`
}

// ModelConfig configures the language model backends and the matcher's call policy.
type ModelConfig struct {
	// Mode forces LOCAL_MODEL, REMOTE_API or FALLBACK. Empty selects automatically.
	Mode string `yaml:"mode"`

	ModelPath     string `yaml:"model_path"`
	LocalEndpoint string `yaml:"local_endpoint"`
	LocalModel    string `yaml:"local_model"`

	APIEndpoint string `yaml:"api_endpoint"`
	APIKey      Secret `yaml:"api_key"`
	APIKeyEnv   string `yaml:"api_key_env"`
	RemoteModel string `yaml:"remote_model"`

	TimeoutMS           int     `yaml:"timeout_ms"`
	FailureThreshold    int     `yaml:"failure_threshold"`
	MaxTokens           int     `yaml:"max_tokens"`
	Temperature         float64 `yaml:"temperature"`
	MaxPromptCandidates int     `yaml:"max_prompt_candidates"`
}

// SearchConfig holds result and input bounds.
type SearchConfig struct {
	ResultLimit    int `yaml:"result_limit"`
	MaxResultLimit int `yaml:"max_result_limit"`
	MaxQueryLength int `yaml:"max_query_length"`
	PerPage        int `yaml:"per_page"`
	MaxPerPage     int `yaml:"max_per_page"`
}

// Load reads and parses the config file at path, applies defaults and environment
// overrides, and expands relative paths against the config file's directory.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Data.Path = expandPath(cfg.Data.Path, configDir)
	if cfg.Model.ModelPath != "" {
		cfg.Model.ModelPath = expandPath(cfg.Model.ModelPath, configDir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path. The API key is written redacted.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature must be between 0 and 2, got %v", c.Model.Temperature)
	}
	if c.Search.ResultLimit > c.Search.MaxResultLimit {
		return fmt.Errorf("search.result_limit (%d) exceeds search.max_result_limit (%d)", c.Search.ResultLimit, c.Search.MaxResultLimit)
	}
	return nil
}

// ResolvedAPIKey returns the configured API key, or the value of the environment
// variable named by APIKeyEnv when no key is set directly.
func (m *ModelConfig) ResolvedAPIKey(getenv func(string) string) Secret {
	if m.APIKey != "" {
		return m.APIKey
	}
	if m.APIKeyEnv != "" && getenv != nil {
		return Secret(strings.TrimSpace(getenv(m.APIKeyEnv)))
	}
	return ""
}

// expandPath converts a path to absolute. Relative paths are resolved against configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	if abs, err := filepath.Abs(filepath.Join(configDir, path)); err == nil {
		return abs
	}
	return path
}
