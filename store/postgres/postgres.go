// Package postgres implements openparse.DocumentStore using PostgreSQL
// via pgx. The caller creates and closes the connection pool; the store
// never owns it.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	openparse "github.com/DivinciApp/open-parse"
)

// StoreOption configures a Postgres Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithTablePrefix prefixes all table names, allowing multiple stores to
// share a database.
func WithTablePrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

// Store implements openparse.DocumentStore backed by PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	prefix string
}

var _ openparse.DocumentStore = (*Store)(nil)

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Store on an existing pool. The pool remains owned by the
// caller; Close on the store is a no-op for the pool.
func New(pool *pgxpool.Pool, opts ...StoreOption) *Store {
	s := &Store{pool: pool, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) table(name string) string { return s.prefix + name }

// Init creates the documents and nodes tables.
func (s *Store) Init(ctx context.Context) error {
	start := time.Now()
	tables := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			num_pages INTEGER NOT NULL,
			created_at BIGINT NOT NULL
		)`, s.table("documents")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			node_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			tokens INTEGER NOT NULL,
			bbox JSONB NOT NULL,
			font JSONB NOT NULL
		)`, s.table("nodes"), s.table("documents")),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%snodes_document
			ON %s(document_id, node_index)`, s.prefix, s.table("nodes")),
	}
	for _, ddl := range tables {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	s.logger.Debug("postgres: init done", "elapsed", time.Since(start))
	return nil
}

// StoreDocument saves a document and its nodes in one transaction.
func (s *Store) StoreDocument(ctx context.Context, doc openparse.ParsedDocument) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, filename, num_pages, created_at)
			VALUES ($1, $2, $3, $4)`, s.table("documents")),
		doc.ID, doc.Filename, doc.NumPages, doc.CreatedAt); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for i, n := range doc.Nodes {
		bbox, err := json.Marshal(n.Bbox)
		if err != nil {
			return fmt.Errorf("marshal bbox: %w", err)
		}
		font, err := json.Marshal(n.Font)
		if err != nil {
			return fmt.Errorf("marshal font: %w", err)
		}
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, document_id, node_index, text, tokens, bbox, font)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table("nodes")),
			n.ID, doc.ID, i, n.Text, n.Tokens, bbox, font); err != nil {
			return fmt.Errorf("insert node %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("postgres: document stored", "id", doc.ID, "nodes", len(doc.Nodes))
	return nil
}

// GetDocument returns a document with its nodes in stored order.
func (s *Store) GetDocument(ctx context.Context, id string) (openparse.ParsedDocument, error) {
	var doc openparse.ParsedDocument
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, filename, num_pages, created_at FROM %s WHERE id = $1`,
			s.table("documents")), id).
		Scan(&doc.ID, &doc.Filename, &doc.NumPages, &doc.CreatedAt)
	if err != nil {
		return openparse.ParsedDocument{}, fmt.Errorf("get document %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, text, tokens, bbox, font FROM %s
			WHERE document_id = $1 ORDER BY node_index`, s.table("nodes")), id)
	if err != nil {
		return openparse.ParsedDocument{}, fmt.Errorf("get nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n openparse.Node
		var bbox, font []byte
		if err := rows.Scan(&n.ID, &n.Text, &n.Tokens, &bbox, &font); err != nil {
			return openparse.ParsedDocument{}, fmt.Errorf("scan node: %w", err)
		}
		if err := json.Unmarshal(bbox, &n.Bbox); err != nil {
			return openparse.ParsedDocument{}, fmt.Errorf("unmarshal bbox: %w", err)
		}
		if err := json.Unmarshal(font, &n.Font); err != nil {
			return openparse.ParsedDocument{}, fmt.Errorf("unmarshal font: %w", err)
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc, rows.Err()
}

// ListDocuments returns up to limit document records, newest first,
// without nodes.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]openparse.ParsedDocument, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, filename, num_pages, created_at FROM %s
			ORDER BY created_at DESC LIMIT $1`, s.table("documents")), limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []openparse.ParsedDocument
	for rows.Next() {
		var doc openparse.ParsedDocument
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.NumPages, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document; nodes cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table("documents")), id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Close is a no-op. The pool is owned by the caller.
func (s *Store) Close() error { return nil }
