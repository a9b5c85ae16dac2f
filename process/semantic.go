package process

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openparse "github.com/DivinciApp/open-parse"
)

// CombineNodesSemantically fuses adjacent nodes whose embedding cosine
// similarity clears a threshold, subject to a token budget on the merged
// text. It runs in two strictly separated phases:
//
//  1. Fan-out: every node lacking a vector is embedded, up to MaxConcurrent
//     requests in flight, results written back by node index. The sweep
//     never starts on partially populated embeddings; the first embedding
//     failure cancels outstanding requests and aborts the run.
//  2. A single greedy left-to-right sweep holding a running accumulator.
//     Each node is compared only against the current accumulator — never
//     against non-adjacent nodes — and a merge decision is never revisited.
//     This is deliberately not all-pairs clustering: a global strategy
//     would change output composition and must not be assumed equivalent.
//
// Emitted nodes never carry embeddings; vectors are stripped before return.
type CombineNodesSemantically struct {
	provider      openparse.EmbeddingProvider
	threshold     float64
	maxTokens     int
	counter       openparse.TokenCounter
	reembed       bool
	maxConcurrent int
}

var _ Transform = (*CombineNodesSemantically)(nil)

// SemanticOption configures CombineNodesSemantically.
type SemanticOption func(*CombineNodesSemantically)

// WithMinSimilarity sets the minimum cosine similarity required to permit a
// merge (default 0.6).
func WithMinSimilarity(s float64) SemanticOption {
	return func(t *CombineNodesSemantically) { t.threshold = s }
}

// WithMaxTokens sets the token budget: a merged node's estimated token
// count must not exceed this (default 512). Nodes already over budget on
// their own still pass through unmerged — text is never split or truncated.
func WithMaxTokens(n int) SemanticOption {
	return func(t *CombineNodesSemantically) { t.maxTokens = n }
}

// WithTokenCounter sets the token estimator (default HeuristicCounter).
// A single run uses exactly one counter; mixing estimators mid-run would
// make merge decisions inconsistent.
func WithTokenCounter(c openparse.TokenCounter) SemanticOption {
	return func(t *CombineNodesSemantically) { t.counter = c }
}

// WithReembedOnMerge controls the accumulator refresh policy. When true
// (default), a freshly fused node's text is re-embedded before it is
// compared against the next candidate, so similarity always reflects the
// accumulator's actual text. When false, the fused node inherits the
// right-hand node's vector — cheaper, but similarity then tracks only the
// newest portion of the accumulator.
func WithReembedOnMerge(b bool) SemanticOption {
	return func(t *CombineNodesSemantically) { t.reembed = b }
}

// WithMaxConcurrent bounds the number of in-flight embedding requests
// during the fan-out phase (default 8).
func WithMaxConcurrent(n int) SemanticOption {
	return func(t *CombineNodesSemantically) {
		if n > 0 {
			t.maxConcurrent = n
		}
	}
}

// NewCombineNodesSemantically creates the semantic combine transform.
func NewCombineNodesSemantically(provider openparse.EmbeddingProvider, opts ...SemanticOption) *CombineNodesSemantically {
	t := &CombineNodesSemantically{
		provider:      provider,
		threshold:     0.6,
		maxTokens:     512,
		counter:       openparse.HeuristicCounter{},
		reembed:       true,
		maxConcurrent: 8,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name implements Transform.
func (t *CombineNodesSemantically) Name() string { return "combine-nodes-semantically" }

// Apply implements Transform. An empty input returns an empty sequence; a
// single-node input returns that node unchanged apart from the embedding
// strip.
func (t *CombineNodesSemantically) Apply(ctx context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	work := make([]openparse.Node, len(nodes))
	copy(work, nodes)

	if err := t.embedAll(ctx, work); err != nil {
		return nil, err
	}

	out, err := t.sweep(ctx, work)
	if err != nil {
		return nil, err
	}

	// The output document must not carry vector data; clear explicitly
	// rather than relying on the values falling out of scope.
	for i := range out {
		out[i].Embedding = nil
	}
	return out, nil
}

// ShouldMerge reports whether the accumulator a and the next node b may
// fuse, given their similarity score. The similarity threshold is checked
// first so the token estimate is not computed for clearly dissimilar pairs.
// Total and deterministic.
func (t *CombineNodesSemantically) ShouldMerge(a, b openparse.Node, score float64) bool {
	if score < t.threshold {
		return false
	}
	merged := openparse.MergeNodes(a, b, t.counter)
	return merged.Tokens <= t.maxTokens
}

// embedAll populates the Embedding field of every node that lacks one.
// Requests are independent and run with bounded parallelism; each result is
// written back by explicit index, so completion order is irrelevant.
// Empty-text nodes get a zero vector without a provider call.
func (t *CombineNodesSemantically) embedAll(parent context.Context, nodes []openparse.Node) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, t.maxConcurrent)

	for i := range nodes {
		if nodes[i].Embedding != nil {
			continue
		}
		if strings.TrimSpace(nodes[i].Text) == "" {
			nodes[i].Embedding = make([]float32, t.provider.Dimensions())
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			vec, err := t.embedOne(ctx, nodes[i].Text)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("embed node %d: %w", i, err)
					cancel()
				}
				mu.Unlock()
				return
			}
			nodes[i].Embedding = vec
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return parent.Err()
}

// embedOne embeds a single text and validates the response shape.
func (t *CombineNodesSemantically) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := t.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, &openparse.ErrProvider{
			Provider: t.provider.Name(),
			Message:  fmt.Sprintf("expected 1 embedding, got %d", len(vecs)),
		}
	}
	return vecs[0], nil
}

// sweep is the sequential reduction phase: strictly single-threaded because
// every decision depends on the immediately preceding merge.
func (t *CombineNodesSemantically) sweep(ctx context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	acc := nodes[0]
	out := make([]openparse.Node, 0, len(nodes))

	for idx := 1; idx < len(nodes); idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := nodes[idx]

		// A merge cleared the accumulator's vector; refresh it lazily so
		// similarity stays consistent with the accumulator's actual text.
		if acc.Embedding == nil {
			vec, err := t.embedOne(ctx, acc.Text)
			if err != nil {
				return nil, fmt.Errorf("re-embed merged node before %d: %w", idx, err)
			}
			acc.Embedding = vec
		}

		merge := false
		if !openparse.IsZeroVector(acc.Embedding) && !openparse.IsZeroVector(next.Embedding) {
			score, err := openparse.CosineSimilarity(acc.Embedding, next.Embedding)
			if err != nil {
				return nil, fmt.Errorf("compare node %d: %w", idx, err)
			}
			merge = t.ShouldMerge(acc, next, score)
		}

		if merge {
			fused := openparse.MergeNodes(acc, next, t.counter)
			if !t.reembed {
				// Inherit-right policy: the newest portion's vector stands
				// in for the accumulator.
				fused.Embedding = next.Embedding
			}
			acc = fused
			continue
		}

		out = append(out, acc)
		acc = next
	}

	return append(out, acc), nil
}
