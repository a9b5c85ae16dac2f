package openparse

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_TransientThenSuccess(t *testing.T) {
	inner := newMockEmbedding(3, nil)
	flaky := &failNEmbedding{inner: inner, n: 2, err: &ErrHTTP{Status: 503, Body: "unavailable"}}

	p := WithEmbeddingRetry(flaky, RetryMaxAttempts(3), RetryBaseDelay(time.Millisecond))
	vecs, err := p.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 3 {
		t.Errorf("unexpected result shape: %v", vecs)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	inner := newMockEmbedding(3, nil)
	flaky := &failNEmbedding{inner: inner, n: 10, err: &ErrHTTP{Status: 429, Body: "rate limited"}}

	p := WithEmbeddingRetry(flaky, RetryMaxAttempts(3), RetryBaseDelay(time.Millisecond))
	_, err := p.Embed(context.Background(), []string{"hello"})

	var exhausted *ErrRetryExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ErrRetryExhausted, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
	if !IsRateLimited(exhausted) {
		t.Error("exhausted error should unwrap to the last HTTP 429")
	}
}

func TestRetry_NonTransientNotRetried(t *testing.T) {
	inner := newMockEmbedding(3, nil)
	flaky := &failNEmbedding{inner: inner, n: 10, err: &ErrHTTP{Status: 400, Body: "bad request"}}

	p := WithEmbeddingRetry(flaky, RetryMaxAttempts(5), RetryBaseDelay(time.Millisecond))
	_, err := p.Embed(context.Background(), []string{"hello"})

	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.Status != 400 {
		t.Fatalf("expected the original 400 error, got %v", err)
	}
	var exhausted *ErrRetryExhausted
	if errors.As(err, &exhausted) {
		t.Error("non-transient errors must not be wrapped in ErrRetryExhausted")
	}
}

func TestRetry_ContextCancelDuringBackoff(t *testing.T) {
	inner := newMockEmbedding(3, nil)
	flaky := &failNEmbedding{inner: inner, n: 10, err: &ErrHTTP{Status: 503, Body: "down"}}

	ctx, cancel := context.WithCancel(context.Background())
	p := WithEmbeddingRetry(flaky, RetryMaxAttempts(5), RetryBaseDelay(time.Minute))

	done := make(chan error, 1)
	go func() {
		_, err := p.Embed(ctx, []string{"hello"})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not respect context cancellation")
	}
}

func TestRetryDelay_RetryAfterFloor(t *testing.T) {
	err := &ErrHTTP{Status: 429, RetryAfter: 10 * time.Second}
	if d := retryDelay(time.Millisecond, 0, err); d < 10*time.Second {
		t.Errorf("delay = %v, want at least the server's Retry-After", d)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := ParseRetryAfter("7"); d != 7*time.Second {
		t.Errorf("ParseRetryAfter(\"7\") = %v", d)
	}
	if d := ParseRetryAfter(""); d != 0 {
		t.Errorf("ParseRetryAfter(\"\") = %v", d)
	}
	future := time.Now().Add(30 * time.Second).UTC().Format(time.RFC1123)
	if d := ParseRetryAfter(future); d <= 0 || d > 31*time.Second {
		t.Errorf("ParseRetryAfter(date) = %v", d)
	}
}
