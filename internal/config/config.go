// Package config loads and validates feedlens configuration. Settings
// live in a TOML file; the API key may instead come from the
// FEEDLENS_API_KEY environment variable (a .env file is honoured).
// The parsed Config is built once at startup and passed by reference
// to every component.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/riverfold/feedlens/internal/core/domain"
)

// EnvAPIKey is the environment variable that overrides api.key.
const EnvAPIKey = "FEEDLENS_API_KEY"

// Config is the root configuration structure.
type Config struct {
	API       API       `toml:"api"`
	Embedding Embedding `toml:"embedding"`
	Chunking  Chunking  `toml:"chunking"`
	Search    Search    `toml:"search"`
	Sync      Sync      `toml:"sync"`
	Store     Store     `toml:"store"`
	Source    Source    `toml:"source"`
}

// API configures the embedding/rerank HTTP endpoint.
type API struct {
	Key     string `toml:"key"`
	BaseURL string `toml:"base_url"`
}

// Embedding configures the embedding model.
type Embedding struct {
	Model             string `toml:"model"`
	Dimensions        int    `toml:"dimensions"`
	BatchSize         int    `toml:"batch_size"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// Chunking configures the word-window chunker.
type Chunking struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// Rerank configures the optional second-stage rerank.
type Rerank struct {
	Enabled        bool   `toml:"enabled"`
	Model          string `toml:"model"`
	Candidates     int    `toml:"candidates"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Search configures the query path.
type Search struct {
	Threshold      float64 `toml:"threshold"`
	PoolMultiplier int     `toml:"pool_multiplier"`
	PoolCap        int     `toml:"pool_cap"`
	DocMaxChars    int     `toml:"doc_max_chars"`
	Rerank         Rerank  `toml:"rerank"`
}

// Sync configures the ingestion loop.
type Sync struct {
	IntervalSeconds int      `toml:"interval_seconds"`
	RetentionDays   int      `toml:"retention_days"`
	BatchEntries    int      `toml:"batch_entries"`
	Categories      []string `toml:"categories"`
}

// Store configures the local index database.
type Store struct {
	Path string `toml:"path"`
}

// Source configures the upstream FreshRSS database.
type Source struct {
	FreshRSSPath string `toml:"freshrss_path"`
}

// Default returns the configuration defaults, matching the embedding
// model the index was designed around.
func Default() *Config {
	return &Config{
		API: API{
			BaseURL: "https://api.siliconflow.cn/v1",
		},
		Embedding: Embedding{
			Model:      "Qwen/Qwen3-Embedding-8B",
			Dimensions: 4096,
			BatchSize:  20,
		},
		Chunking: Chunking{
			Size:    200,
			Overlap: 100,
		},
		Search: Search{
			Threshold:      0.5,
			PoolMultiplier: 5,
			PoolCap:        50,
			DocMaxChars:    4000,
			Rerank: Rerank{
				Enabled:        false,
				Model:          "BAAI/bge-reranker-v2-m3",
				Candidates:     30,
				TimeoutSeconds: 10,
			},
		},
		Sync: Sync{
			IntervalSeconds: 3600,
			RetentionDays:   90,
			BatchEntries:    10,
		},
	}
}

// DefaultPath returns the default config file location,
// ~/.feedlens/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".feedlens", "config.toml"), nil
}

// Load reads the TOML file at path over the defaults, applies
// environment overrides, and validates. A missing file is fine when
// the environment supplies everything required.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Fall through to env + defaults.
	default:
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidConfig, path, err)
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.API.Key = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first malformed or missing setting.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.API.Key == "" {
		return fail("api.key (or %s) is required", EnvAPIKey)
	}
	if c.Source.FreshRSSPath == "" {
		return fail("source.freshrss_path is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fail("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		return fail("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Chunking.Size <= 0 {
		return fail("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fail("chunking.overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Search.Threshold <= 0 {
		return fail("search.threshold must be positive, got %v", c.Search.Threshold)
	}
	if c.Search.PoolMultiplier <= 0 {
		return fail("search.pool_multiplier must be positive, got %d", c.Search.PoolMultiplier)
	}
	if c.Search.PoolCap <= 0 {
		return fail("search.pool_cap must be positive, got %d", c.Search.PoolCap)
	}
	if c.Sync.IntervalSeconds <= 0 {
		return fail("sync.interval_seconds must be positive, got %d", c.Sync.IntervalSeconds)
	}
	if c.Sync.BatchEntries <= 0 {
		return fail("sync.batch_entries must be positive, got %d", c.Sync.BatchEntries)
	}
	return nil
}
