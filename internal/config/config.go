// Package config loads orodjarna configuration: built-in defaults, then an
// optional YAML file, then environment variables. Command-line flags are
// applied on top by the binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/orodjarna/internal/command"
	"github.com/erazemk/orodjarna/internal/custody"
)

// Config is the full configuration. Durations are Go duration strings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Slack    SlackConfig    `yaml:"slack"`
	Fallback FallbackConfig `yaml:"fallback"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Store    StoreConfig    `yaml:"store"`
	Admin    AdminConfig    `yaml:"admin"`
	Grammar  command.Config `yaml:"grammar"`
}

// ServerConfig configures the HTTP server and database.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	DB   string `yaml:"db"`
	Log  string `yaml:"log"`
}

// SlackConfig holds Slack credentials.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token"`
	SigningSecret string `yaml:"signing_secret"`
	HandleTimeout string `yaml:"handle_timeout"`
}

// FallbackConfig selects the generator for unrecognized messages.
type FallbackConfig struct {
	// Provider is "gemini" or "canned". Gemini without an API key falls
	// back to canned replies.
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	Timeout      string `yaml:"timeout"`
	SystemPrompt string `yaml:"system_prompt"`
	CannedText   string `yaml:"canned_text"`
}

// DedupConfig sizes the event dedup cache.
type DedupConfig struct {
	Capacity int    `yaml:"capacity"`
	TTL      string `yaml:"ttl"`
}

// StoreConfig is the timeout and retry policy for store calls.
type StoreConfig struct {
	Timeout   string `yaml:"timeout"`
	Attempts  int    `yaml:"attempts"`
	BaseDelay string `yaml:"base_delay"`
	MaxDelay  string `yaml:"max_delay"`
}

// AdminConfig configures admin API tokens.
type AdminConfig struct {
	TokenTTL string `yaml:"token_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			DB:   "orodjarna.db",
		},
		Slack: SlackConfig{
			HandleTimeout: "2m",
		},
		Fallback: FallbackConfig{
			Provider: "gemini",
			Timeout:  "30s",
		},
		Dedup: DedupConfig{
			Capacity: 100,
			TTL:      "60s",
		},
		Store: StoreConfig{
			Timeout:   "5s",
			Attempts:  2,
			BaseDelay: "100ms",
			MaxDelay:  "1s",
		},
		Admin: AdminConfig{
			TokenTTL: "720h",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path or a missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("SLACK_SIGNING_SECRET"); v != "" {
		c.Slack.SigningSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Fallback.APIKey = v
	}
	if v := os.Getenv("ORODJARNA_DB"); v != "" {
		c.Server.DB = v
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Server.DB == "" {
		return errors.New("database path is required")
	}
	if c.Dedup.Capacity < 1 {
		return fmt.Errorf("dedup capacity must be positive, got %d", c.Dedup.Capacity)
	}
	if c.Store.Attempts < 1 {
		return fmt.Errorf("store attempts must be positive, got %d", c.Store.Attempts)
	}
	switch c.Fallback.Provider {
	case "gemini", "canned":
	default:
		return fmt.Errorf("invalid fallback provider: %q (valid: gemini, canned)", c.Fallback.Provider)
	}

	durations := map[string]string{
		"slack.handle_timeout": c.Slack.HandleTimeout,
		"fallback.timeout":     c.Fallback.Timeout,
		"dedup.ttl":            c.Dedup.TTL,
		"store.timeout":        c.Store.Timeout,
		"store.base_delay":     c.Store.BaseDelay,
		"store.max_delay":      c.Store.MaxDelay,
		"admin.token_ttl":      c.Admin.TokenTTL,
	}
	for name, v := range durations {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if _, err := command.New(c.Grammar); err != nil {
		return fmt.Errorf("grammar: %w", err)
	}
	return nil
}

// DedupTTL returns how long an event id is remembered.
func (c *Config) DedupTTL() time.Duration {
	return duration(c.Dedup.TTL, 60*time.Second)
}

// FallbackTimeout returns the bound on a single generator call.
func (c *Config) FallbackTimeout() time.Duration {
	return duration(c.Fallback.Timeout, 30*time.Second)
}

// HandleTimeout returns the bound on handling one Slack event.
func (c *Config) HandleTimeout() time.Duration {
	return duration(c.Slack.HandleTimeout, 2*time.Minute)
}

// TokenTTL returns the lifetime of issued admin tokens.
func (c *Config) TokenTTL() time.Duration {
	return duration(c.Admin.TokenTTL, 30*24*time.Hour)
}

// Policy returns the store call policy.
func (c *Config) Policy() custody.Policy {
	def := custody.DefaultPolicy()
	p := custody.Policy{
		Timeout:   duration(c.Store.Timeout, def.Timeout),
		Attempts:  c.Store.Attempts,
		BaseDelay: duration(c.Store.BaseDelay, def.BaseDelay),
		MaxDelay:  duration(c.Store.MaxDelay, def.MaxDelay),
	}
	if p.Attempts < 1 {
		p.Attempts = def.Attempts
	}
	return p
}

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
