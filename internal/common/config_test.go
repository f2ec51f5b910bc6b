package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scholia.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8755, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 768, cfg.LLM.EmbedDimension)
	assert.Equal(t, "@every 5m", cfg.Embeddings.Schedule)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFilesOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
environment = "production"

[server]
port = 9000

[llm]
provider = "claude"
embed_dimension = 1536

[ask]
max_context_chars = 20000
`)

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, 1536, cfg.LLM.EmbedDimension)
	assert.Equal(t, 20000, cfg.Ask.MaxContextChars)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "gemini-embedding-001", cfg.LLM.EmbedModelName)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	first := writeConfigFile(t, "[server]\nport = 9000\n")
	second := writeConfigFile(t, "[server]\nport = 9100\n")

	cfg, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCHOLIA_SERVER_PORT", "9200")
	t.Setenv("SCHOLIA_LOG_LEVEL", "debug")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := DefaultConfig()

	ApplyFlagOverrides(cfg, 9300, "0.0.0.0")
	assert.Equal(t, 9300, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Zero values leave the config untouched.
	ApplyFlagOverrides(cfg, 0, "")
	assert.Equal(t, 9300, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "openai" }},
		{"zero embed dimension", func(c *Config) { c.LLM.EmbedDimension = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unparseable timeout", func(c *Config) { c.LLM.Timeout = "soon" }},
		{"missing badger path", func(c *Config) { c.Storage.Badger.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAllowsInMemoryWithoutPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Badger.Path = ""
	cfg.Storage.Badger.InMemory = true

	assert.NoError(t, cfg.Validate())
}

func TestProviderTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout())

	cfg.LLM.Timeout = "90s"
	assert.Equal(t, 90*time.Second, cfg.ProviderTimeout())
}
