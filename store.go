package openparse

import "context"

// DocumentStore persists parsed documents for downstream retrieval and
// chunked indexing. Nodes are stored in reading order with their page and
// formatting metadata; embeddings are never persisted — they do not exist
// by the time a ParsedDocument leaves the pipeline.
type DocumentStore interface {
	// Init creates required tables. Safe to call repeatedly.
	Init(ctx context.Context) error
	// StoreDocument saves a document and its nodes atomically.
	StoreDocument(ctx context.Context, doc ParsedDocument) error
	// GetDocument returns a document with its nodes in order.
	GetDocument(ctx context.Context, id string) (ParsedDocument, error)
	// ListDocuments returns up to limit document records, newest first,
	// without nodes.
	ListDocuments(ctx context.Context, limit int) ([]ParsedDocument, error)
	// DeleteDocument removes a document and its nodes.
	DeleteDocument(ctx context.Context, id string) error
	// Close releases the underlying connection(s).
	Close() error
}
