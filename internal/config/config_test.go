package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "gitstory.db", cfg.Storage.DBPath)
	assert.Equal(t, "epic", cfg.Chapters.DefaultStyle)
	assert.False(t, cfg.AIEnabled())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitstory.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
listen = ":9999"
log_format = "json"

[storage]
db_path = "stories.db"

[ai]
model = "gpt-4.1"

[webhooks]
urls = ["https://hooks.example.com/a"]
`), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.Equal(t, "json", cfg.Server.LogFormat)
	assert.Equal(t, "stories.db", cfg.Storage.DBPath)
	assert.Equal(t, "gpt-4.1", cfg.AI.Model)
	assert.Equal(t, []string{"https://hooks.example.com/a"}, cfg.Webhooks.URLs)

	// Unset sections keep their defaults.
	assert.Equal(t, 300, cfg.Server.RequestsPerMinute)
	assert.Equal(t, 20, cfg.Chapters.FallbackBatchSize)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitstory.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
listen = ":9999"

[ai]
api_key = "from-file"
`), 0644))

	t.Setenv("GITSTORY_LISTEN", ":7777")
	t.Setenv("GITSTORY_AI_API_KEY", "from-env")
	t.Setenv("GITSTORY_WEBHOOK_URLS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Listen)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Webhooks.URLs)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitstory.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not toml ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = "" }},
		{"zero upload cap", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"zero rate limit", func(c *Config) { c.Server.RequestsPerMinute = 0 }},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.Server.LogFormat = "xml" }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"empty archive path", func(c *Config) { c.Storage.ArchivePath = "" }},
		{"zero ai timeout", func(c *Config) { c.AI.RequestTimeout = 0 }},
		{"zero window", func(c *Config) { c.Chapters.MaxCommitsPerRequest = 0 }},
		{"zero fallback batch", func(c *Config) { c.Chapters.FallbackBatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitstory.toml")

	cfg := Default()
	cfg.Server.Listen = ":6060"
	cfg.Webhooks.URLs = []string{"https://hooks.example.com/x"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6060", loaded.Server.Listen)
	assert.Equal(t, cfg.Webhooks.URLs, loaded.Webhooks.URLs)
}
