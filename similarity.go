package openparse

import "math"

// CosineSimilarity computes the cosine similarity between two embedding
// vectors: dot(a,b) / (|a| * |b|), in [-1, 1]. Both vectors must have the
// same dimensionality and a non-zero norm; violating either returns
// *ErrDimensionMismatch, since vectors from different providers must never
// be compared. Pure and deterministic.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, &ErrDimensionMismatch{LenA: len(a), LenB: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, &ErrDimensionMismatch{LenA: len(a), LenB: len(b)}
	}
	return dot / denom, nil
}

// IsZeroVector reports whether every component of v is zero. The pipeline
// attaches zero vectors to empty-text nodes instead of calling the provider;
// such nodes never merge but comparing against them is not an error.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
