package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	// ErrEmbeddingGeneration marks a retryable embedding failure. Callers see
	// it only after the per-facet retry ceiling is exhausted; no partial
	// record is persisted when it surfaces.
	ErrEmbeddingGeneration = errors.New("embedding generation failed")

	// ErrStoreUnavailable marks a vector store outage. Read paths degrade to
	// an empty context; write paths propagate it loudly.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrIsolationViolation is returned when a store call would run without a
	// tenant (or, where applicable, user) equality filter. It indicates a
	// programming error, never a runtime condition to be corrected silently.
	ErrIsolationViolation = errors.New("tenant isolation violation")
)

// Retryable reports whether the error is transient and worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbeddingGeneration) || errors.Is(err, ErrStoreUnavailable)
}
