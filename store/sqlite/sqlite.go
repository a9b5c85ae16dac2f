// Package sqlite implements openparse.DocumentStore using pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	openparse "github.com/DivinciApp/open-parse"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. When set, the store
// emits debug logs for every operation including timing and row counts.
// If not set, no logs are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store implements openparse.DocumentStore backed by a local SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ openparse.DocumentStore = (*Store)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Store using a local SQLite file at dbPath (":memory:" for
// an in-memory database). It opens a single shared connection pool with
// SetMaxOpenConns(1) so all goroutines serialize through one connection,
// eliminating SQLITE_BUSY errors from concurrent writers.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// Init creates the documents and nodes tables.
func (s *Store) Init(ctx context.Context) error {
	start := time.Now()
	tables := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			num_pages INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			node_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			tokens INTEGER NOT NULL,
			bbox TEXT NOT NULL,
			font TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_document
			ON nodes(document_id, node_index)`,
	}
	for _, ddl := range tables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	s.logger.Debug("sqlite: init done", "elapsed", time.Since(start))
	return nil
}

// StoreDocument saves a document and its nodes in one transaction.
func (s *Store) StoreDocument(ctx context.Context, doc openparse.ParsedDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, num_pages, created_at) VALUES (?, ?, ?, ?)`,
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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (id, document_id, node_index, text, tokens, bbox, font)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, doc.ID, i, n.Text, n.Tokens, string(bbox), string(font)); err != nil {
			return fmt.Errorf("insert node %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("sqlite: document stored", "id", doc.ID, "nodes", len(doc.Nodes))
	return nil
}

// GetDocument returns a document with its nodes in stored order.
func (s *Store) GetDocument(ctx context.Context, id string) (openparse.ParsedDocument, error) {
	var doc openparse.ParsedDocument
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, num_pages, created_at FROM documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.Filename, &doc.NumPages, &doc.CreatedAt)
	if err != nil {
		return openparse.ParsedDocument{}, fmt.Errorf("get document %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, tokens, bbox, font FROM nodes
		 WHERE document_id = ? ORDER BY node_index`, id)
	if err != nil {
		return openparse.ParsedDocument{}, fmt.Errorf("get nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n openparse.Node
		var bbox, font string
		if err := rows.Scan(&n.ID, &n.Text, &n.Tokens, &bbox, &font); err != nil {
			return openparse.ParsedDocument{}, fmt.Errorf("scan node: %w", err)
		}
		if err := json.Unmarshal([]byte(bbox), &n.Bbox); err != nil {
			return openparse.ParsedDocument{}, fmt.Errorf("unmarshal bbox: %w", err)
		}
		if err := json.Unmarshal([]byte(font), &n.Font); err != nil {
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, num_pages, created_at FROM documents
		 ORDER BY created_at DESC LIMIT ?`, limit)
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

// DeleteDocument removes a document and its nodes.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
