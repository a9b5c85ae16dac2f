package openparse

import (
	"context"
	"sync"
	"time"
)

// rateLimitEmbeddingProvider wraps an EmbeddingProvider with proactive rate
// limiting. Requests are blocked until the rate budget allows them to
// proceed.
type rateLimitEmbeddingProvider struct {
	inner EmbeddingProvider
	mu    sync.Mutex

	// RPM state: sliding window of request timestamps.
	rpm       int
	rpmWindow []time.Time
}

// RateLimitOption configures WithEmbeddingRateLimit.
type RateLimitOption func(*rateLimitEmbeddingProvider)

// RPM sets the maximum requests per minute.
func RPM(n int) RateLimitOption {
	return func(r *rateLimitEmbeddingProvider) { r.rpm = n }
}

// WithEmbeddingRateLimit wraps p with proactive request rate limiting.
// Pacing requests below the backend's quota avoids 429 responses instead of
// recovering from them; compose with the retry decorator for both:
//
//	emb = openparse.WithEmbeddingRateLimit(provider, openparse.RPM(60))
//	emb = openparse.WithEmbeddingRateLimit(openparse.WithEmbeddingRetry(provider), openparse.RPM(60))
func WithEmbeddingRateLimit(p EmbeddingProvider, opts ...RateLimitOption) EmbeddingProvider {
	r := &rateLimitEmbeddingProvider{inner: p}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *rateLimitEmbeddingProvider) Name() string    { return r.inner.Name() }
func (r *rateLimitEmbeddingProvider) Dimensions() int { return r.inner.Dimensions() }

func (r *rateLimitEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.waitForBudget(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, texts)
}

// waitForBudget blocks until the RPM budget allows a request.
// Returns ctx.Err() if the context is cancelled while waiting.
func (r *rateLimitEmbeddingProvider) waitForBudget(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-time.Minute)
		r.rpmWindow = pruneTime(r.rpmWindow, cutoff)

		if r.rpm <= 0 || len(r.rpmWindow) < r.rpm {
			if r.rpm > 0 {
				r.rpmWindow = append(r.rpmWindow, now)
			}
			r.mu.Unlock()
			return nil
		}

		// Wait until the oldest entry in the window expires.
		wait := r.rpmWindow[0].Add(time.Minute).Sub(now)
		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// pruneTime removes entries older than cutoff from a sorted time slice.
func pruneTime(s []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(s) && s[i].Before(cutoff) {
		i++
	}
	return s[i:]
}

// compile-time check
var _ EmbeddingProvider = (*rateLimitEmbeddingProvider)(nil)
