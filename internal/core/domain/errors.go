package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoSuchFeed indicates a feed filter named a feed that does not
	// exist in the content store. Distinct from an empty result set.
	ErrNoSuchFeed = errors.New("no such feed")

	// ErrInvalidConfig indicates a missing or malformed setting.
	// Fatal at startup only.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSourceUnavailable indicates the FreshRSS store is unreachable.
	// The current sync cycle or reconciliation step is skipped.
	ErrSourceUnavailable = errors.New("content source unavailable")

	// ErrEmbeddingFailed indicates an embedding service call failed.
	// Recoverable at batch granularity.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmbeddingCountMismatch indicates the embedding service returned
	// a different number of vectors than input texts. The batch is
	// discarded and treated like any other embedding failure.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrRerankFailed indicates a rerank call failed or timed out.
	// The query falls back to the pre-rerank order.
	ErrRerankFailed = errors.New("rerank failed")
)
