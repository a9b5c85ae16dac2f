// Command openparse parses a PDF or HTML document into semantic nodes.
//
// Fragments are extracted from the file, cleaned up, and optionally merged
// by embedding similarity when an embedding provider is configured. Output
// is JSON, Markdown, or HTML on stdout, and documents can be persisted to
// SQLite or PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	openparse "github.com/DivinciApp/open-parse"
	"github.com/DivinciApp/open-parse/export"
	"github.com/DivinciApp/open-parse/html"
	"github.com/DivinciApp/open-parse/internal/config"
	"github.com/DivinciApp/open-parse/observer"
	"github.com/DivinciApp/open-parse/pdf"
	"github.com/DivinciApp/open-parse/process"
	"github.com/DivinciApp/open-parse/provider/resolve"
	"github.com/DivinciApp/open-parse/store/postgres"
	"github.com/DivinciApp/open-parse/store/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("OPENPARSE_CONFIG"), "path to TOML config")
		format     = flag.String("format", "json", "output format: json, markdown, html")
		save       = flag.Bool("save", false, "persist the parsed document to the configured store")
		list       = flag.Bool("list", false, "list stored documents and exit")
		get        = flag.String("get", "", "fetch a stored document by ID and exit")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), logger, *configPath, *format, *save, *list, *get, flag.Arg(0)); err != nil {
		logger.Error("openparse failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, format string, save, list bool, get, input string) error {
	// 1. Load config
	cfg := config.Load(configPath)

	// 2. Store (optional)
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("init store: %w", err)
		}
	}

	// 3. Store-only modes
	if list {
		return listDocuments(ctx, store)
	}
	if get != "" {
		return printDocument(ctx, store, get, format)
	}

	if input == "" {
		return fmt.Errorf("usage: openparse [flags] <file.pdf|file.html>")
	}

	// 4. Observer (opt-in via config)
	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		var shutdown func(context.Context) error
		inst, shutdown, err = observer.Init(ctx)
		if err != nil {
			return fmt.Errorf("init observer: %w", err)
		}
		defer shutdown(context.Background())
		logger.Info("OTEL observability enabled")
	}

	// 5. Parse
	doc, err := parseFile(ctx, cfg, logger, inst, input)
	if err != nil {
		return err
	}
	logger.Info("document parsed", "id", doc.ID, "nodes", len(doc.Nodes), "pages", doc.NumPages)

	// 6. Persist
	if save {
		if store == nil {
			return fmt.Errorf("no store configured; set [store] backend in config")
		}
		if err := store.StoreDocument(ctx, doc); err != nil {
			return fmt.Errorf("store document: %w", err)
		}
		logger.Info("document stored", "id", doc.ID)
	}

	// 7. Output
	return writeOutput(doc, format)
}

func parseFile(ctx context.Context, cfg config.Config, logger *slog.Logger, inst *observer.Instruments, input string) (openparse.ParsedDocument, error) {
	content, err := os.ReadFile(input)
	if err != nil {
		return openparse.ParsedDocument{}, fmt.Errorf("read input: %w", err)
	}

	var fragments []openparse.Fragment
	var numPages int
	switch strings.ToLower(filepath.Ext(input)) {
	case ".pdf":
		fragments, numPages, err = pdf.NewSource().Fragments(content)
	case ".html", ".htm":
		fragments, numPages, err = html.NewSource().Fragments(content, "file://"+input)
	default:
		return openparse.ParsedDocument{}, fmt.Errorf("unsupported input type %q", filepath.Ext(input))
	}
	if err != nil {
		return openparse.ParsedDocument{}, fmt.Errorf("extract fragments: %w", err)
	}

	pipeline, err := buildPipeline(cfg, logger, inst)
	if err != nil {
		return openparse.ParsedDocument{}, err
	}
	if inst != nil {
		pipeline = observer.WrapPipeline(pipeline, cfg.Pipeline.Strategy, inst)
	}

	parser := openparse.NewDocumentParser(
		openparse.WithPipeline(pipeline),
		openparse.WithLogger(logger),
	)
	if inst != nil {
		return observer.WrapParser(parser, inst).Parse(ctx, filepath.Base(input), numPages, fragments)
	}
	return parser.Parse(ctx, filepath.Base(input), numPages, fragments)
}

func buildPipeline(cfg config.Config, logger *slog.Logger, inst *observer.Instruments) (openparse.NodePipeline, error) {
	switch cfg.Pipeline.Strategy {
	case "noop":
		return process.NewNoOpPipeline(), nil
	case "basic":
		p := process.NewBasicPipeline()
		p.SetLogger(logger)
		return p, nil
	case "", "semantic":
	default:
		return nil, fmt.Errorf("unknown pipeline strategy %q", cfg.Pipeline.Strategy)
	}

	provider, err := resolve.EmbeddingProvider(resolve.EmbeddingConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		AccountID:  cfg.Embedding.AccountID,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve embedding provider: %w", err)
	}

	provider = openparse.WithEmbeddingRetry(provider, openparse.RetryLogger(logger))
	if cfg.Embedding.RPM > 0 {
		provider = openparse.WithEmbeddingRateLimit(provider, openparse.RPM(cfg.Embedding.RPM))
	}
	if inst != nil {
		provider = observer.WrapEmbedding(provider, inst)
	}

	p := process.NewSemanticPipeline(provider, process.SemanticConfig{
		MinSimilarity:  cfg.Pipeline.MinSimilarity,
		MaxTokens:      cfg.Pipeline.MaxTokens,
		MinTokens:      cfg.Pipeline.MinTokens,
		MaxConcurrent:  cfg.Pipeline.MaxConcurrent,
		ReembedOnMerge: cfg.Pipeline.ReembedOnMerge,
	})
	p.SetLogger(logger)
	return p, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (openparse.DocumentStore, error) {
	switch cfg.Store.Backend {
	case "", "none":
		return nil, nil
	case "sqlite":
		return sqlite.New(cfg.Store.Path, sqlite.WithLogger(logger)), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &pooledStore{Store: postgres.New(pool, postgres.WithLogger(logger)), pool: pool}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// pooledStore closes the pgx pool the CLI created for the store.
type pooledStore struct {
	*postgres.Store
	pool *pgxpool.Pool
}

func (p *pooledStore) Close() error {
	p.pool.Close()
	return nil
}

func listDocuments(ctx context.Context, store openparse.DocumentStore) error {
	if store == nil {
		return fmt.Errorf("no store configured; set [store] backend in config")
	}
	docs, err := store.ListDocuments(ctx, 50)
	if err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Printf("%s\t%s\t%d pages\n", d.ID, d.Filename, d.NumPages)
	}
	return nil
}

func printDocument(ctx context.Context, store openparse.DocumentStore, id, format string) error {
	if store == nil {
		return fmt.Errorf("no store configured; set [store] backend in config")
	}
	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	return writeOutput(doc, format)
}

func writeOutput(doc openparse.ParsedDocument, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "markdown", "md":
		fmt.Println(export.Markdown(doc))
		return nil
	case "html":
		out, err := export.HTML(doc)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
