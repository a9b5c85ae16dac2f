// Package resolve creates embedding providers from provider-agnostic
// configuration, so callers can select a backend by name in config files
// without importing each provider package.
package resolve

import (
	"fmt"

	openparse "github.com/DivinciApp/open-parse"
	"github.com/DivinciApp/open-parse/provider/cloudflare"
	"github.com/DivinciApp/open-parse/provider/ollama"
	"github.com/DivinciApp/open-parse/provider/openai"
)

// EmbeddingConfig holds provider-agnostic configuration for creating an
// EmbeddingProvider.
type EmbeddingConfig struct {
	Provider   string // "ollama", "openai", "cloudflare"
	Model      string
	APIKey     string
	BaseURL    string // server root for ollama; optional override for openai
	AccountID  string // cloudflare only
	Dimensions int    // 0 = provider default for the model
}

// EmbeddingProvider creates an openparse.EmbeddingProvider from cfg.
func EmbeddingProvider(cfg EmbeddingConfig) (openparse.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "bge-large"
		}
		var opts []ollama.Option
		if cfg.Dimensions > 0 {
			opts = append(opts, ollama.WithDimensions(cfg.Dimensions))
		}
		return ollama.New(baseURL, model, opts...), nil

	case "openai":
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Dimensions > 0 {
			opts = append(opts, openai.WithDimensions(cfg.Dimensions))
		}
		return openai.New(cfg.APIKey, model, opts...), nil

	case "cloudflare":
		var opts []cloudflare.Option
		if cfg.Dimensions > 0 {
			opts = append(opts, cloudflare.WithDimensions(cfg.Dimensions))
		}
		return cloudflare.New(cfg.AccountID, cfg.APIKey, cfg.Model, opts...), nil

	default:
		return nil, fmt.Errorf("resolve: unknown embedding provider %q", cfg.Provider)
	}
}
