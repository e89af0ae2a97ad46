// Package config manages the gitstory configuration file and its
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is the config filename looked up in the working
// directory when no --config flag is given.
const DefaultConfigFile = "gitstory.toml"

// DefaultMaxUploadBytes is the upload-size ceiling for log exports.
const DefaultMaxUploadBytes = 100 << 20 // 100 MB

// Config is the full gitstory configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	AI       AIConfig       `toml:"ai"`
	Chapters ChaptersConfig `toml:"chapters"`
	Webhooks WebhookConfig  `toml:"webhooks"`
}

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	Listen string `toml:"listen"`
	// APIToken guards the API with a static bearer token. Empty leaves the
	// API open, for local use.
	APIToken          string `toml:"api_token"`
	MaxUploadBytes    int64  `toml:"max_upload_bytes"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	LogLevel          string `toml:"log_level"`  // debug, info, warn, error
	LogFormat         string `toml:"log_format"` // text or json
}

// StorageConfig holds the database and raw-log archive locations.
type StorageConfig struct {
	DBPath      string `toml:"db_path"`
	ArchivePath string `toml:"archive_path"`
}

// AIConfig holds the chat-completions endpoint settings. The key is read
// as given; storing it encrypted is a non-goal.
type AIConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
}

// ChaptersConfig tunes chapter grouping.
type ChaptersConfig struct {
	StylesPath           string `toml:"styles_path"`
	DefaultStyle         string `toml:"default_style"`
	MaxCommitsPerRequest int    `toml:"max_commits_per_request"`
	FallbackBatchSize    int    `toml:"fallback_batch_size"`
}

// WebhookConfig lists URLs notified about story lifecycle events.
type WebhookConfig struct {
	URLs []string `toml:"urls"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:            ":8080",
			MaxUploadBytes:    DefaultMaxUploadBytes,
			RequestsPerMinute: 300,
			LogLevel:          "info",
			LogFormat:         "text",
		},
		Storage: StorageConfig{
			DBPath:      "gitstory.db",
			ArchivePath: "logarchive",
		},
		AI: AIConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			RequestTimeout: 60,
		},
		Chapters: ChaptersConfig{
			DefaultStyle:         "epic",
			MaxCommitsPerRequest: 300,
			FallbackBatchSize:    20,
		},
	}
}

// Load reads the configuration file at path, applies environment overrides,
// and validates the result. A missing file is not an error: defaults plus
// environment are used, so the binary runs without any setup.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to environment and defaults
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvironment lets GITSTORY_* variables override file values, so
// secrets can stay out of the config file.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("GITSTORY_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("GITSTORY_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("GITSTORY_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("GITSTORY_LOG_FORMAT"); v != "" {
		c.Server.LogFormat = v
	}
	if v := os.Getenv("GITSTORY_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Server.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("GITSTORY_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("GITSTORY_ARCHIVE_PATH"); v != "" {
		c.Storage.ArchivePath = v
	}
	if v := os.Getenv("GITSTORY_AI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("GITSTORY_AI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("GITSTORY_AI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("GITSTORY_WEBHOOK_URLS"); v != "" {
		c.Webhooks.URLs = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks settings that would otherwise fail obscurely at runtime.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Server.RequestsPerMinute <= 0 {
		return fmt.Errorf("server.requests_per_minute must be positive")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level %q is not one of debug, info, warn, error", c.Server.LogLevel)
	}
	switch c.Server.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("server.log_format %q is not text or json", c.Server.LogFormat)
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path must not be empty")
	}
	if c.Storage.ArchivePath == "" {
		return fmt.Errorf("storage.archive_path must not be empty")
	}
	if c.AI.RequestTimeout <= 0 {
		return fmt.Errorf("ai.request_timeout_seconds must be positive")
	}
	if c.Chapters.MaxCommitsPerRequest <= 0 {
		return fmt.Errorf("chapters.max_commits_per_request must be positive")
	}
	if c.Chapters.FallbackBatchSize <= 0 {
		return fmt.Errorf("chapters.fallback_batch_size must be positive")
	}
	return nil
}

// AIEnabled reports whether a chat-completions key is configured.
func (c *Config) AIEnabled() bool {
	return c.AI.APIKey != ""
}
