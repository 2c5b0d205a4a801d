// Package config provides configuration loading and validation for the engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config represents the engine configuration. Values can come from a JSON
// file, environment variables, or defaults; environment wins over file.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Generation service
	APIKey              string `json:"api_key,omitempty"`               // Gemini API key
	GenerationTimeoutMS int    `json:"generation_timeout_ms,omitempty"` // per-attempt timeout
	GenerationBackoffMS int    `json:"generation_backoff_ms,omitempty"` // wait before the retry

	// Classification
	TiePolicy   string   `json:"tie_policy,omitempty"`   // exact-tie resolution policy name
	BannedTerms []string `json:"banned_terms,omitempty"` // extra banned type names

	// Sessions
	SessionTTLMinutes int `json:"session_ttl_minutes,omitempty"` // abandoned-session sweep TTL

	// Persistence
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty disables persistence

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // emit generation records to stderr
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Port:                8080,
		GenerationTimeoutMS: 5000,
		GenerationBackoffMS: 500,
		SessionTTLMinutes:   30,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("TIE_POLICY"); v != "" {
		c.TiePolicy = v
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.GenerationTimeoutMS == 0 {
		result.GenerationTimeoutMS = defaults.GenerationTimeoutMS
	}
	if result.GenerationBackoffMS == 0 {
		result.GenerationBackoffMS = defaults.GenerationBackoffMS
	}
	if result.SessionTTLMinutes == 0 {
		result.SessionTTLMinutes = defaults.SessionTTLMinutes
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.TiePolicy == "" {
		result.TiePolicy = defaults.TiePolicy
	}
	if len(result.BannedTerms) == 0 {
		result.BannedTerms = defaults.BannedTerms
	}
	return result
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be in [0, 65535], got %d", c.Port)
	}
	if c.GenerationTimeoutMS < 0 {
		return fmt.Errorf("config error: 'generation_timeout_ms' must be non-negative")
	}
	if c.GenerationBackoffMS < 0 {
		return fmt.Errorf("config error: 'generation_backoff_ms' must be non-negative")
	}
	if c.SessionTTLMinutes < 0 {
		return fmt.Errorf("config error: 'session_ttl_minutes' must be non-negative")
	}
	switch c.TiePolicy {
	case "", "neutral", "declaration-order":
	default:
		return fmt.Errorf("config error: unknown 'tie_policy' %q", c.TiePolicy)
	}
	return nil
}
