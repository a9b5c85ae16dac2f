package openparse

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyInput is returned by embedding providers when asked to embed an
// empty string. The pipeline never sends empty texts — empty-text nodes get
// a zero vector attached locally — so seeing this error indicates a caller
// bug rather than bad document content.
var ErrEmptyInput = errors.New("openparse: empty input text")

// ErrProvider is a provider-level failure that is not an HTTP status error:
// request construction, transport failures, malformed response bodies.
type ErrProvider struct {
	Provider string
	Message  string
}

func (e *ErrProvider) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrHTTP is a non-2xx response from an embedding backend. Status 429 (rate
// limited) and 5xx (unavailable) are transient and retried by the retry
// decorator; everything else propagates immediately.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ErrDimensionMismatch reports an attempt to compare vectors of different
// dimensionality, or a zero vector. Both indicate misconfiguration (mixing
// providers mid-run) and abort the pipeline.
type ErrDimensionMismatch struct {
	LenA, LenB int
}

func (e *ErrDimensionMismatch) Error() string {
	if e.LenA != e.LenB {
		return fmt.Sprintf("openparse: dimension mismatch: %d vs %d", e.LenA, e.LenB)
	}
	return fmt.Sprintf("openparse: zero vector of dimension %d", e.LenA)
}

// ErrRetryExhausted is returned after the retry decorator gives up on a
// transient failure. It aborts the whole pipeline run; no partial output is
// produced.
type ErrRetryExhausted struct {
	Provider string
	Attempts int
	Last     error
}

func (e *ErrRetryExhausted) Error() string {
	return fmt.Sprintf("%s: %d attempts exhausted: %v", e.Provider, e.Attempts, e.Last)
}

func (e *ErrRetryExhausted) Unwrap() error { return e.Last }

// IsRateLimited reports whether err is an HTTP 429 from a provider.
func IsRateLimited(err error) bool {
	var e *ErrHTTP
	return errors.As(err, &e) && e.Status == 429
}

// IsUnavailable reports whether err is an HTTP 5xx from a provider.
func IsUnavailable(err error) bool {
	var e *ErrHTTP
	return errors.As(err, &e) && e.Status >= 500
}
