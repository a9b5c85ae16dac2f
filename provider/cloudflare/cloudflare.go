// Package cloudflare implements openparse.EmbeddingProvider against
// Cloudflare Workers AI text embedding models.
package cloudflare

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

const defaultBaseURL = "https://api.cloudflare.com/client/v4/accounts"

// maxBatchSize is the Workers AI limit on texts per request.
const maxBatchSize = 100

// Model dimensions for the BAAI general embedding family.
var modelDimensions = map[string]int{
	"@cf/baai/bge-small-en-v1.5": 384,
	"@cf/baai/bge-base-en-v1.5":  768,
	"@cf/baai/bge-large-en-v1.5": 1024,
}

// Provider calls the Workers AI run endpoint for an embedding model.
type Provider struct {
	accountID string
	apiToken  string
	model     string
	baseURL   string
	dims      int
	client    *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithBaseURL overrides the accounts API root, for gateways and tests.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithDimensions overrides the advertised vector size for models not in the
// built-in table.
func WithDimensions(n int) Option {
	return func(p *Provider) { p.dims = n }
}

// New creates a Workers AI embedding provider. model defaults to
// "@cf/baai/bge-base-en-v1.5" when empty.
func New(accountID, apiToken, model string, opts ...Option) *Provider {
	if model == "" {
		model = "@cf/baai/bge-base-en-v1.5"
	}
	p := &Provider{
		accountID: accountID,
		apiToken:  apiToken,
		model:     model,
		baseURL:   defaultBaseURL,
		dims:      modelDimensions[model],
		client:    &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "cloudflare".
func (p *Provider) Name() string { return "cloudflare" }

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int { return p.dims }

type embedRequest struct {
	Text []string `json:"text"`
}

type embedResponse struct {
	Result struct {
		Data [][]float32 `json:"data"`
	} `json:"result"`
	Success bool `json:"success"`
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
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))
		vecs, err := p.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (p *Provider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Text: texts})
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "cloudflare", Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/%s/ai/run/%s", p.baseURL, p.accountID, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "cloudflare", Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiToken)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &openparse.ErrProvider{Provider: "cloudflare", Message: fmt.Sprintf("request failed: %v", err)}
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
		return nil, &openparse.ErrProvider{Provider: "cloudflare", Message: fmt.Sprintf("decode response: %v", err)}
	}
	if !er.Success || len(er.Result.Data) != len(texts) {
		return nil, &openparse.ErrProvider{
			Provider: "cloudflare",
			Message:  fmt.Sprintf("expected %d embeddings, got %d (success=%v)", len(texts), len(er.Result.Data), er.Success),
		}
	}
	return er.Result.Data, nil
}

// Compile-time interface check.
var _ openparse.EmbeddingProvider = (*Provider)(nil)
