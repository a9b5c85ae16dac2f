package openparse

import (
	"context"
	"sync"
)

// mockEmbedding returns canned vectors keyed by text. Unknown texts get a
// unit vector on the first axis so cosine comparisons stay well-defined.
// Embed this in test-specific provider structs to override single methods.
type mockEmbedding struct {
	vectors map[string][]float32
	dims    int

	mu    sync.Mutex
	calls int
}

func newMockEmbedding(dims int, vectors map[string][]float32) *mockEmbedding {
	return &mockEmbedding{vectors: vectors, dims: dims}
}

func (m *mockEmbedding) Name() string    { return "mock" }
func (m *mockEmbedding) Dimensions() int { return m.dims }

func (m *mockEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.vectors[t]; ok {
			out[i] = v
			continue
		}
		v := make([]float32, m.dims)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedding) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// failNEmbedding fails the first n Embed calls with err, then delegates to
// the wrapped provider.
type failNEmbedding struct {
	inner EmbeddingProvider
	err   error

	mu sync.Mutex
	n  int
}

func (f *failNEmbedding) Name() string    { return f.inner.Name() }
func (f *failNEmbedding) Dimensions() int { return f.inner.Dimensions() }

func (f *failNEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	remaining := f.n
	if remaining > 0 {
		f.n--
	}
	f.mu.Unlock()
	if remaining > 0 {
		return nil, f.err
	}
	return f.inner.Embed(ctx, texts)
}
