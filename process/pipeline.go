package process

import (
	openparse "github.com/DivinciApp/open-parse"
)

// NewNoOpPipeline returns a pipeline that only sorts nodes into reading
// order — for callers that want raw extraction output.
func NewNoOpPipeline() *Pipeline {
	return New()
}

// NewBasicPipeline returns the spatial-only pipeline: adjacent nodes are
// fused using layout signals alone (overlap margins, bullets, headings),
// then extraction noise is filtered out. Used when no embedding provider is
// configured.
func NewBasicPipeline() *Pipeline {
	return New(
		&RemoveFullPageStubs{MaxAreaPct: 0.35},
		// Mostly aimed at combining bullets and weird formatting.
		&CombineNodesSpatially{XErrorMargin: 10, YErrorMargin: 4, Criteria: CriteriaBothSmall},
		&CombineHeadingsWithClosestText{},
		&CombineBullets{},
		&CombineNodesSpatially{XErrorMargin: 0, YErrorMargin: 10, Criteria: CriteriaBothSmall},
		&RemoveMetadataElements{},
		&CombineNodesSpatially{Criteria: CriteriaEitherStub},
		&RemoveRepeatedElements{Threshold: 2},
		// Tried everything to combine; remove the stubs that are still left.
		&RemoveNodesBelowNTokens{MinTokens: 50},
		// Combines bullets split across pages.
		&CombineBullets{},
	)
}

// SemanticConfig configures NewSemanticPipeline.
type SemanticConfig struct {
	// MinSimilarity is the merge threshold (default 0.6).
	MinSimilarity float64
	// MaxTokens is the merged-node token budget (default 512).
	MaxTokens int
	// MinTokens drops nodes below this estimate after combining (default 20).
	MinTokens int
	// MaxConcurrent bounds in-flight embedding requests (default 8).
	MaxConcurrent int
	// ReembedOnMerge re-embeds fused text before the next comparison
	// (default true; see WithReembedOnMerge).
	ReembedOnMerge *bool
	// Counter is the token estimator shared by every step of the run
	// (default HeuristicCounter).
	Counter openparse.TokenCounter
}

func (c SemanticConfig) withDefaults() SemanticConfig {
	if c.MinSimilarity == 0 {
		c.MinSimilarity = 0.6
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
	if c.MinTokens == 0 {
		c.MinTokens = 20
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 8
	}
	if c.Counter == nil {
		c.Counter = openparse.HeuristicCounter{}
	}
	return c
}

// NewSemanticPipeline returns the embedding-driven pipeline: the basic
// cleanup prefix, then semantic combining of adjacent nodes, then a final
// minimum-size filter. The provider is consulted only inside the semantic
// combine step and its vectors never leave the pipeline.
func NewSemanticPipeline(provider openparse.EmbeddingProvider, cfg SemanticConfig) *Pipeline {
	cfg = cfg.withDefaults()

	opts := []SemanticOption{
		WithMinSimilarity(cfg.MinSimilarity),
		WithMaxTokens(cfg.MaxTokens),
		WithMaxConcurrent(cfg.MaxConcurrent),
		WithTokenCounter(cfg.Counter),
	}
	if cfg.ReembedOnMerge != nil {
		opts = append(opts, WithReembedOnMerge(*cfg.ReembedOnMerge))
	}

	return New(
		&RemoveFullPageStubs{MaxAreaPct: 0.35},
		&CombineNodesSpatially{XErrorMargin: 10, YErrorMargin: 2, Criteria: CriteriaBothSmall, Counter: cfg.Counter},
		&CombineHeadingsWithClosestText{Counter: cfg.Counter},
		&CombineBullets{Counter: cfg.Counter},
		&RemoveMetadataElements{},
		&RemoveRepeatedElements{Threshold: 2},
		&RemoveNodesBelowNTokens{MinTokens: 10},
		&CombineBullets{Counter: cfg.Counter},
		NewCombineNodesSemantically(provider, opts...),
		&RemoveNodesBelowNTokens{MinTokens: cfg.MinTokens},
	)
}
