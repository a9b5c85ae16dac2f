// Package ollama implements openparse.EmbeddingProvider against a local
// Ollama server's embeddings API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	openparse "github.com/DivinciApp/open-parse"
)

// DefaultDimensions matches bge-large, the default model.
const DefaultDimensions = 1024

// Provider calls an Ollama server. The embeddings endpoint accepts a single
// prompt per request, so Embed issues one call per text, sequentially —
// wrap with the pipeline's bounded fan-out for parallelism across nodes.
type Provider struct {
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets a custom HTTP client (e.g. for timeouts or proxies).
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithDimensions sets the advertised vector size for models other than the
// default.
func WithDimensions(n int) Option {
	return func(p *Provider) { p.dims = n }
}

// New creates an Ollama embedding provider.
//
// baseURL is the server root (e.g. "http://localhost:11434"); the
// /api/embeddings path is appended automatically. model is the embedding
// model name (e.g. "bge-large", "nomic-embed-text").
func New(baseURL, model string, opts ...Option) *Provider {
	p := &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		dims:    DefaultDimensions,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "ollama".
func (p *Provider) Name() string { return "ollama" }

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int { return p.dims }

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns one vector per input text, in input order. Empty input text
// fails with openparse.ErrEmptyInput before any network call.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	for _, t := range texts {
		if t == "" {
			return nil, openparse.ErrEmptyInput
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := p.embedOne(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (p *Provider) embedOne(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "ollama", Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := p.baseURL + "/api/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "ollama", Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "ollama", Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &openparse.ErrHTTP{
			Status:     resp.StatusCode,
			Body:       string(body),
			RetryAfter: openparse.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, &openparse.ErrProvider{Provider: "ollama", Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(er.Embedding) == 0 {
		return nil, &openparse.ErrProvider{Provider: "ollama", Message: "empty embedding in response"}
	}
	return er.Embedding, nil
}

// Compile-time interface check.
var _ openparse.EmbeddingProvider = (*Provider)(nil)
