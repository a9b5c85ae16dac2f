package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Store     StoreConfig     `toml:"store"`
	Observer  ObserverConfig  `toml:"observer"`
}

type PipelineConfig struct {
	// Strategy selects the transform list: "noop", "basic", or "semantic".
	Strategy       string  `toml:"strategy"`
	MinSimilarity  float64 `toml:"min_similarity"`
	MaxTokens      int     `toml:"max_tokens"`
	MinTokens      int     `toml:"min_tokens"`
	MaxConcurrent  int     `toml:"max_concurrent"`
	ReembedOnMerge *bool   `toml:"reembed_on_merge"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	AccountID  string `toml:"account_id"`
	Dimensions int    `toml:"dimensions"`
	RPM        int    `toml:"rpm"`
}

type StoreConfig struct {
	// Backend is "none", "sqlite", or "postgres".
	Backend     string `toml:"backend"`
	Path        string `toml:"path"`
	PostgresURL string `toml:"postgres_url"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Pipeline: PipelineConfig{
			Strategy:      "semantic",
			MinSimilarity: 0.6,
			MaxTokens:     512,
			MinTokens:     20,
			MaxConcurrent: 8,
		},
		Embedding: EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small"},
		Store:     StoreConfig{Backend: "none", Path: "openparse.db"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "openparse.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("OPENPARSE_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("OPENPARSE_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("OPENPARSE_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("OPENPARSE_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("OPENPARSE_EMBEDDING_ACCOUNT_ID"); v != "" {
		cfg.Embedding.AccountID = v
	}
	if v := os.Getenv("OPENPARSE_MIN_SIMILARITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.MinSimilarity = f
		}
	}
	if v := os.Getenv("OPENPARSE_POSTGRES_URL"); v != "" {
		cfg.Store.PostgresURL = v
	}
	if v := os.Getenv("OPENPARSE_OBSERVER_ENABLED"); v == "true" || v == "1" {
		cfg.Observer.Enabled = true
	}

	// Fallbacks
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "none"
	}
	if cfg.Store.PostgresURL != "" && cfg.Store.Backend == "none" {
		cfg.Store.Backend = "postgres"
	}

	return cfg
}
