// Package openparse converts extracted document text into semantically
// coherent blocks suitable for retrieval and chunked indexing.
//
// The hard part is not text extraction, which is delegated to narrow
// fragment sources, but the ingestion pipeline: deciding which adjacent
// nodes to fuse, using embedding cosine similarity against a threshold and
// a token budget, and discarding every vector once merging completes.
//
// # Quick Start
//
//	src := pdf.NewSource()
//	fragments, pages, err := src.Fragments(content)
//
//	emb := openparse.WithEmbeddingRetry(ollama.New("http://localhost:11434", "bge-large"))
//	parser := openparse.NewDocumentParser(
//		openparse.WithPipeline(process.NewSemanticPipeline(emb, process.SemanticConfig{
//			MinSimilarity: 0.6,
//			MaxTokens:     512,
//		})),
//	)
//	doc, err := parser.Parse(ctx, "report.pdf", pages, fragments)
//
// # Core Interfaces
//
// The root package defines the contracts that all components implement:
//
//   - [EmbeddingProvider] — text-to-vector embedding, one backend per subpackage
//   - [NodePipeline] — ordered node sequence in, ordered node sequence out
//   - [TokenCounter] — deterministic token estimation for merge budgeting
//
// # Included Implementations
//
// Providers: provider/ollama (local inference), provider/openai,
// provider/cloudflare (Workers AI). Pipelines: process (basic spatial and
// semantic variants). Sources: pdf, html. Storage: store/sqlite,
// store/postgres. Rendering: export.
//
// Compose cross-cutting behavior with decorators: [WithEmbeddingRetry] for
// bounded retry with backoff, [WithEmbeddingRateLimit] for proactive request
// pacing, and observer.WrapEmbedding for OpenTelemetry instrumentation.
package openparse
