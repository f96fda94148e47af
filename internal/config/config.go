// Package config holds runtime settings for the note store core.
//
// Settings are layered: defaults first, then environment variables with
// the NOTEVAULT_ prefix (e.g. NOTEVAULT_DATA_DIR). Later sources take
// precedence.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "notevault"

// Config holds runtime settings for the note store core.
//
// DebounceWindow is the quiet period after the last repository mutation
// before the in-memory note list is persisted; a burst of edits inside
// the window collapses into one write.
type Config struct {
	DataDir        string        `envconfig:"DATA_DIR"`
	SecretsDir     string        `envconfig:"SECRETS_DIR"`
	RemoteBaseURL  string        `envconfig:"REMOTE_BASE_URL"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT"`
	DebounceWindow time.Duration `envconfig:"DEBOUNCE_WINDOW"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "notevault-data"
	c.SecretsDir = "notevault-secrets"
	c.RemoteBaseURL = "http://127.0.0.1:8080"
	c.HTTPTimeout = 10 * time.Second
	c.DebounceWindow = 500 * time.Millisecond
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}
