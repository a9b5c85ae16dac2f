package openparse

import (
	"context"
	"testing"
	"time"
)

func TestRateLimit_UnderBudget(t *testing.T) {
	inner := newMockEmbedding(3, nil)
	p := WithEmbeddingRateLimit(inner, RPM(100))

	for i := 0; i < 5; i++ {
		if _, err := p.Embed(context.Background(), []string{"text"}); err != nil {
			t.Fatalf("Embed() error = %v", err)
		}
	}
	if inner.callCount() != 5 {
		t.Errorf("inner calls = %d, want 5", inner.callCount())
	}
}

func TestRateLimit_NoLimitConfigured(t *testing.T) {
	inner := newMockEmbedding(3, nil)
	p := WithEmbeddingRateLimit(inner)

	if _, err := p.Embed(context.Background(), []string{"text"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
}

func TestRateLimit_BlocksOverBudget(t *testing.T) {
	inner := newMockEmbedding(3, nil)
	p := WithEmbeddingRateLimit(inner, RPM(1))

	if _, err := p.Embed(context.Background(), []string{"first"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	// Second call would block for the remainder of the window; cancel it.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Embed(ctx, []string{"second"}); err == nil {
		t.Fatal("expected the second call to block until cancellation")
	}
	if inner.callCount() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.callCount())
	}
}
