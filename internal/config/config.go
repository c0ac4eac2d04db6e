// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for elisa.
//
// Configuration comes from, in order of precedence:
//   - ELISA_* environment variables
//   - ~/.elisa/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/elisa-mobile/elisa-tui/internal/model"
	"github.com/elisa-mobile/elisa-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete elisa configuration.
type Config struct {
	Version string `toml:"version"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`

	// RAG backend configuration
	RAG RAGConfig `toml:"rag"`

	// Fallback responder configuration
	Fallback FallbackConfig `toml:"fallback"`

	// Authentication configuration
	Auth AuthConfig `toml:"auth"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ChatConfig contains conversation settings.
type ChatConfig struct {
	// HistoryWindow is how many trailing messages are sent as context (1-50).
	HistoryWindow int `toml:"history_window" env:"ELISA_HISTORY_WINDOW"`
	// MaxMessageLen caps user input length in runes (1-1000).
	MaxMessageLen int `toml:"max_message_len" env:"ELISA_MAX_MESSAGE_LEN"`
	// WelcomeText is the greeting seeded into every new session.
	WelcomeText string `toml:"welcome_text" env:"ELISA_WELCOME_TEXT"`
}

// RAGConfig contains remote assistant endpoint settings.
type RAGConfig struct {
	// BaseURL is the assistant API base URL.
	BaseURL string `toml:"base_url" env:"ELISA_RAG_URL"`
	// Endpoint is the agent path under the base URL.
	Endpoint string `toml:"endpoint" env:"ELISA_RAG_ENDPOINT"`
	// TimeoutSecs bounds one round trip in seconds (5-120).
	TimeoutSecs int `toml:"timeout_secs" env:"ELISA_RAG_TIMEOUT_SECS"`
	// UserAgent is sent with every request.
	UserAgent string `toml:"user_agent" env:"ELISA_RAG_USER_AGENT"`
	// RequestsPerSec throttles outbound requests (0 = unthrottled).
	RequestsPerSec float64 `toml:"requests_per_sec" env:"ELISA_RAG_RPS"`
	// Burst is the request burst allowance when throttled.
	Burst int `toml:"burst" env:"ELISA_RAG_BURST"`
}

// FallbackConfig contains local responder settings.
type FallbackConfig struct {
	// Deterministic selects reproducible no-match replies. When false the
	// responder picks randomly, matching the original varied behavior.
	Deterministic bool `toml:"deterministic" env:"ELISA_FALLBACK_DETERMINISTIC"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	// DemoMode accepts any syntactically valid credentials without a backend.
	// The real auth integration is only reachable with this off.
	DemoMode bool `toml:"demo_mode" env:"ELISA_DEMO_MODE"`
}

// StorageConfig contains durable storage settings.
type StorageConfig struct {
	// Dir is where preferences and auth state live (empty = ~/.elisa).
	// Conversation messages are never persisted.
	Dir string `toml:"dir" env:"ELISA_DATA_DIR"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Markdown renders assistant replies through the markdown renderer.
	Markdown bool `toml:"markdown" env:"ELISA_UI_MARKDOWN"`
	// ShowSources prints the source documents under each assistant reply.
	ShowSources bool `toml:"show_sources" env:"ELISA_UI_SOURCES"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultWelcomeText is the assistant greeting for new sessions.
const DefaultWelcomeText = "Hello! I'm LISA, your intelligent assistant for machine maintenance and support. How can I help you today?"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Chat: ChatConfig{
			HistoryWindow: 10,
			MaxMessageLen: 1000,
			WelcomeText:   DefaultWelcomeText,
		},

		RAG: RAGConfig{
			BaseURL:        "https://gpt.lisec.com/api",
			Endpoint:       "/elise-rag-agent",
			TimeoutSecs:    30,
			UserAgent:      "elisa-tui/1.0.0",
			RequestsPerSec: 1,
			Burst:          4,
		},

		Fallback: FallbackConfig{
			Deterministic: true,
		},

		Auth: AuthConfig{
			DemoMode: true,
		},

		Storage: StorageConfig{
			Dir: "",
		},

		UI: UIConfig{
			Markdown:    true,
			ShowSources: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the elisa configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".elisa"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file (if present), applies environment overrides and
// validates the result. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.Validate()
	return cfg, nil
}

// Save writes the config to its default location atomically.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to an explicit path atomically.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate clamps out-of-range values to valid bounds. It never fails: a bad
// value degrades to the nearest sane one.
func (c *Config) Validate() {
	if c.Chat.HistoryWindow < 1 {
		c.Chat.HistoryWindow = 10
	}
	if c.Chat.HistoryWindow > 50 {
		c.Chat.HistoryWindow = 50
	}
	if c.Chat.MaxMessageLen < 1 || c.Chat.MaxMessageLen > model.MaxUserTextLen {
		c.Chat.MaxMessageLen = model.MaxUserTextLen
	}
	if c.Chat.WelcomeText == "" {
		c.Chat.WelcomeText = DefaultWelcomeText
	}

	if c.RAG.BaseURL == "" {
		c.RAG.BaseURL = Default().RAG.BaseURL
	}
	if c.RAG.Endpoint == "" {
		c.RAG.Endpoint = Default().RAG.Endpoint
	}
	if c.RAG.TimeoutSecs < 5 {
		c.RAG.TimeoutSecs = 5
	}
	if c.RAG.TimeoutSecs > 120 {
		c.RAG.TimeoutSecs = 120
	}
	if c.RAG.RequestsPerSec < 0 {
		c.RAG.RequestsPerSec = 0
	}
	if c.RAG.Burst < 1 {
		c.RAG.Burst = 1
	}
}

// DataDir resolves the storage directory, falling back to the config dir.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return ConfigDir()
}
