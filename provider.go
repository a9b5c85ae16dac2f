package openparse

import "context"

// EmbeddingProvider abstracts text embedding.
//
// Contract shared by all implementations: given non-empty texts, Embed
// returns one vector of Dimensions() length per input text, in input order.
// An empty input text fails with ErrEmptyInput — callers that tolerate
// empty texts must filter them out (the semantic combine step attaches zero
// vectors locally instead of calling the provider). Embed may perform
// network I/O; it never mutates caller state and returns fresh vectors.
type EmbeddingProvider interface {
	// Embed returns embedding vectors for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}
