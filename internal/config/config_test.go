package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverfold/feedlens/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const minimalConfig = `
[api]
key = "test-key"

[source]
freshrss_path = "/data/users/kai/db.sqlite"
`

func TestLoad_MinimalFileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.API.Key)
	assert.Equal(t, "/data/users/kai/db.sqlite", cfg.Source.FreshRSSPath)

	// Defaults fill everything else.
	assert.Equal(t, "Qwen/Qwen3-Embedding-8B", cfg.Embedding.Model)
	assert.Equal(t, 4096, cfg.Embedding.Dimensions)
	assert.Equal(t, 20, cfg.Embedding.BatchSize)
	assert.Equal(t, 200, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.InDelta(t, 0.5, cfg.Search.Threshold, 1e-9)
	assert.Equal(t, 5, cfg.Search.PoolMultiplier)
	assert.Equal(t, 3600, cfg.Sync.IntervalSeconds)
	assert.Equal(t, 90, cfg.Sync.RetentionDays)
	assert.False(t, cfg.Search.Rerank.Enabled)
}

func TestLoad_FullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[api]
key = "k"
base_url = "http://localhost:8080/v1"

[embedding]
model = "local-model"
dimensions = 384
batch_size = 8
requests_per_minute = 120

[chunking]
size = 50
overlap = 10

[search]
threshold = 0.7
pool_multiplier = 3
pool_cap = 30
doc_max_chars = 1000

[search.rerank]
enabled = true
model = "my-reranker"
candidates = 12
timeout_seconds = 5

[sync]
interval_seconds = 600
retention_days = 0
batch_entries = 4
categories = ["Tech", "News"]

[store]
path = "/tmp/index.db"

[source]
freshrss_path = "/tmp/db.sqlite"
`))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1", cfg.API.BaseURL)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, 120, cfg.Embedding.RequestsPerMinute)
	assert.Equal(t, 50, cfg.Chunking.Size)
	assert.True(t, cfg.Search.Rerank.Enabled)
	assert.Equal(t, "my-reranker", cfg.Search.Rerank.Model)
	assert.Equal(t, 12, cfg.Search.Rerank.Candidates)
	assert.Equal(t, []string{"Tech", "News"}, cfg.Sync.Categories)
	assert.Equal(t, 0, cfg.Sync.RetentionDays)
	assert.Equal(t, "/tmp/index.db", cfg.Store.Path)
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.Key)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")

	// No file at this path; env key alone is not enough because the
	// source path has no default.
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[api\nkey="))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.API.Key = "k"
		cfg.Source.FreshRSSPath = "/tmp/db.sqlite"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.API.Key = "" }},
		{"missing source path", func(c *Config) { c.Source.FreshRSSPath = "" }},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }},
		{"zero threshold", func(c *Config) { c.Search.Threshold = 0 }},
		{"zero pool multiplier", func(c *Config) { c.Search.PoolMultiplier = 0 }},
		{"zero pool cap", func(c *Config) { c.Search.PoolCap = 0 }},
		{"zero interval", func(c *Config) { c.Sync.IntervalSeconds = 0 }},
		{"zero batch entries", func(c *Config) { c.Sync.BatchEntries = 0 }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}
