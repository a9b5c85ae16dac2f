// Package openai implements openparse.EmbeddingProvider against the OpenAI
// embeddings API (and compatible servers).
package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Model dimensions for the standard embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// Provider calls the OpenAI embeddings endpoint. Requests are batched: one
// call per Embed invocation, up to the configured batch size per request.
type Provider struct {
	apiKey    string
	model     string
	baseURL   string
	dims      int
	batchSize int
	client    *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at an OpenAI-compatible server
// (e.g. "http://localhost:8000/v1" for vLLM).
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithDimensions overrides the advertised vector size for models not in the
// built-in table.
func WithDimensions(n int) Option {
	return func(p *Provider) { p.dims = n }
}

// WithBatchSize sets the number of texts per API call (default 256).
func WithBatchSize(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// New creates an OpenAI embedding provider for the given model
// (e.g. "text-embedding-3-small").
func New(apiKey, model string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:    apiKey,
		model:     model,
		baseURL:   defaultBaseURL,
		dims:      modelDimensions[model],
		batchSize: 256,
		client:    &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "openai".
func (p *Provider) Name() string { return "openai" }

// Dimensions returns the embedding vector size (0 when the model is unknown
// and WithDimensions was not set).
func (p *Provider) Dimensions() int { return p.dims }

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input text, in input order. Empty input text
// fails with openparse.ErrEmptyInput before any network call.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	for _, t := range texts {
		if t == "" {
			return nil, openparse.ErrEmptyInput
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		vecs, err := p.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (p *Provider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Input: texts, Model: p.model})
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "openai", Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := p.baseURL + "/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "openai", Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "openai", Message: fmt.Sprintf("request failed: %v", err)}
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
		return nil, &openparse.ErrProvider{Provider: "openai", Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(er.Data) != len(texts) {
		return nil, &openparse.ErrProvider{
			Provider: "openai",
			Message:  fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(er.Data)),
		}
	}

	// The API documents data in input order but also tags each entry with
	// its index; honor the index.
	out := make([][]float32, len(texts))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &openparse.ErrProvider{Provider: "openai", Message: fmt.Sprintf("embedding index %d out of range", d.Index)}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Compile-time interface check.
var _ openparse.EmbeddingProvider = (*Provider)(nil)
