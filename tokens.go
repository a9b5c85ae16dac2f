package openparse

import "strings"

// TokenCounter estimates the token count of a text. Estimates must be
// deterministic and monotonically increasing with length; a pipeline run
// uses exactly one counter throughout so merge decisions are consistent.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter estimates tokens from the word count (~0.75 tokens per
// word for English text, so words × 1.33). Exact tokenization is not
// required for merge budgeting; this mirrors the common chars/4 heuristic
// while tracking word boundaries a little more closely.
type HeuristicCounter struct{}

// Count implements TokenCounter.
func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
