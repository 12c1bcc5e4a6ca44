package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the recall service and workers.
// Environment variables are parsed from the RECALL_ prefix, e.g.
// RECALL_HTTP_PORT, RECALL_VECTOR_STORE_URL.
type Config struct {
	// HTTP configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Vector store (Weaviate, host:port without scheme)
	VectorStoreURL string `envconfig:"VECTOR_STORE_URL" default:"localhost:8081"`

	// Embedding provider
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"ollama"`
	EmbedModel    string `envconfig:"EMBED_MODEL" default:"nomic-embed-text"`
	OllamaURL     string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// Embedding generation retry policy
	EmbedMaxAttempts    int `envconfig:"EMBED_MAX_ATTEMPTS" default:"3"`
	EmbedTimeoutSeconds int `envconfig:"EMBED_TIMEOUT_SECONDS" default:"30"`

	// Emotion classifier collaborator
	ClassifierURL string `envconfig:"CLASSIFIER_URL" default:"http://localhost:8090"`

	// Default intensity when a prior emotion analysis omits it. Tunable.
	DefaultEmotionIntensity float64 `envconfig:"DEFAULT_EMOTION_INTENSITY" default:"0.5"`

	// Temporal query planning
	SessionWindowHours int `envconfig:"SESSION_WINDOW_HOURS" default:"4"`
	DayWindowHours     int `envconfig:"DAY_WINDOW_HOURS" default:"24"`

	// Tier sweep
	SweepIntervalMinutes int    `envconfig:"SWEEP_INTERVAL_MINUTES" default:"30"`
	SweepPageSize        int    `envconfig:"SWEEP_PAGE_SIZE" default:"200"`
	SweepTenants         string `envconfig:"SWEEP_TENANTS" default:""`
	SweepJournalPath     string `envconfig:"SWEEP_JOURNAL_PATH" default:"recall-sweeps.db"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// New creates a Config by parsing RECALL_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("RECALL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would break retrieval or sweep semantics.
func (c *Config) Validate() error {
	if c.EmbedMaxAttempts < 1 {
		return fmt.Errorf("EMBED_MAX_ATTEMPTS must be >= 1, got %d", c.EmbedMaxAttempts)
	}
	if c.SessionWindowHours <= 0 || c.DayWindowHours <= 0 {
		return fmt.Errorf("temporal windows must be positive")
	}
	if c.SessionWindowHours > c.DayWindowHours {
		return fmt.Errorf("session window (%dh) must not exceed day window (%dh)",
			c.SessionWindowHours, c.DayWindowHours)
	}
	if c.DefaultEmotionIntensity < 0 || c.DefaultEmotionIntensity > 1 {
		return fmt.Errorf("DEFAULT_EMOTION_INTENSITY must be in [0,1], got %f", c.DefaultEmotionIntensity)
	}
	if c.SweepPageSize <= 0 {
		return fmt.Errorf("SWEEP_PAGE_SIZE must be positive")
	}
	return nil
}

// NewForTesting returns a config suitable for unit tests; no env access.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:                  8080,
		VectorStoreURL:            "localhost:8081",
		EmbedProvider:             "ollama",
		EmbedModel:                "nomic-embed-text",
		OllamaURL:                 "http://localhost:11434",
		EmbedMaxAttempts:          3,
		EmbedTimeoutSeconds:       5,
		ClassifierURL:             "http://localhost:8090",
		DefaultEmotionIntensity:   0.5,
		SessionWindowHours:        4,
		DayWindowHours:            24,
		SweepIntervalMinutes:      30,
		SweepPageSize:             50,
		SweepJournalPath:          ":memory:",
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
}

// SessionWindow returns the short window used for same-day temporal queries.
func (c *Config) SessionWindow() time.Duration {
	return time.Duration(c.SessionWindowHours) * time.Hour
}

// DayWindow returns the default window for temporal queries.
func (c *Config) DayWindow() time.Duration {
	return time.Duration(c.DayWindowHours) * time.Hour
}

// SweepInterval returns the cadence of the background tier sweep.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// GetHTTPAddr returns the HTTP server bind address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
