// Package config provides configuration file support for CopyFlow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/copyflow-project/copyflow/pkg/fsutil"
	"github.com/copyflow-project/copyflow/pkg/webhook"
)

// Config represents the CopyFlow configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Audit    AuditConfig    `yaml:"audit"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Webhooks WebhooksConfig `yaml:"webhooks"`

	// APIKey is only ever read from the environment.
	APIKey string `yaml:"-"`
}

// APIConfig configures the language-model backend.
type APIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TranslateModel string  `yaml:"translate_model"`
	AuditModel     string  `yaml:"audit_model"`
	Temperature    float64 `yaml:"temperature"`
	MaxRetries     int     `yaml:"max_retries"`
	Timeout        string  `yaml:"timeout"`
}

// DefaultsConfig holds the initial language and tone of a session.
type DefaultsConfig struct {
	Language string `yaml:"language"`
	Tone     string `yaml:"tone"`
}

// AuditConfig configures simulated chunked delivery of audit responses.
// A chunk size of 0 delivers the response in one piece.
type AuditConfig struct {
	StreamChunkSize int    `yaml:"stream_chunk_size"`
	StreamInterval  string `yaml:"stream_interval"`
}

// ServerConfig configures `copyflow serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WebhooksConfig lists endpoints notified by `copyflow serve`.
type WebhooksConfig struct {
	Hooks      []webhook.HookConfig `yaml:"hooks"`
	MaxRetries int                  `yaml:"max_retries"`
	RetryDelay string               `yaml:"retry_delay"`
	QueueSize  int                  `yaml:"queue_size"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			TranslateModel: "gemini-3-flash-preview",
			AuditModel:     "gemini-3-pro-preview",
			Temperature:    0.7,
			MaxRetries:     3,
			Timeout:        "120s",
		},
		Defaults: DefaultsConfig{
			Language: "en-US",
			Tone:     "Professional",
		},
		Audit: AuditConfig{
			StreamChunkSize: 0,
			StreamInterval:  "20ms",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Webhooks: WebhooksConfig{
			MaxRetries: 3,
			RetryDelay: "5s",
			QueueSize:  100,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/copyflow/config.yaml, falling back to
// the user config dir.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "copyflow", "config.yaml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "copyflow", "config.yaml"), nil
}

// Load loads configuration from path, or from DefaultPath when path is empty.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to path atomically.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := fsutil.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables: GEMINI_API_KEY (or API_KEY) and
// COPYFLOW_BASE_URL.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			c.APIKey = v
			break
		}
	}
	if v := strings.TrimSpace(getenv("COPYFLOW_BASE_URL")); v != "" {
		c.API.BaseURL = v
	}
}

// Validate checks values that are parsed lazily elsewhere.
func (c *Config) Validate() error {
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.StreamIntervalDuration(); err != nil {
		return err
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0, got %d", c.API.MaxRetries)
	}
	if _, err := parseDuration("webhooks.retry_delay", c.Webhooks.RetryDelay); err != nil {
		return err
	}
	for i, h := range c.Webhooks.Hooks {
		if h.URL == "" {
			return fmt.Errorf("webhooks.hooks[%d].url is required", i)
		}
	}
	if c.Audit.StreamChunkSize < 0 {
		return fmt.Errorf("audit.stream_chunk_size must be >= 0, got %d", c.Audit.StreamChunkSize)
	}
	return nil
}

// TimeoutDuration parses api.timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	return parseDuration("api.timeout", c.API.Timeout)
}

// StreamIntervalDuration parses audit.stream_interval.
func (c *Config) StreamIntervalDuration() (time.Duration, error) {
	return parseDuration("audit.stream_interval", c.Audit.StreamInterval)
}

// WebhookConfig builds the webhook client configuration.
func (c *Config) WebhookConfig() (*webhook.Config, error) {
	delay, err := parseDuration("webhooks.retry_delay", c.Webhooks.RetryDelay)
	if err != nil {
		return nil, err
	}
	wc := webhook.DefaultConfig()
	wc.Hooks = c.Webhooks.Hooks
	wc.MaxRetries = c.Webhooks.MaxRetries
	wc.RetryDelay = delay
	if c.Webhooks.QueueSize > 0 {
		wc.QueueSize = c.Webhooks.QueueSize
	}
	return wc, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
