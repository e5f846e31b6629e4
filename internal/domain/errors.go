package domain

import "errors"

// Sentinel errors for store and bootstrap operations. Wrapped with
// fmt.Errorf("%w: ...") and matched with errors.Is.
var (
	// ErrEmptyText indicates a document with empty text.
	ErrEmptyText = errors.New("document text is empty")

	// ErrEmptyBatch indicates an empty or nil batch of texts.
	ErrEmptyBatch = errors.New("empty document batch")

	// ErrMetadataLength indicates texts and metadatas of different lengths.
	ErrMetadataLength = errors.New("texts and metadatas length mismatch")

	// ErrDimensionMismatch indicates an embedding whose length differs
	// from the store's pinned dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrCorruptSnapshot indicates an unreadable or malformed persisted
	// snapshot. Surfaced at store construction; never silently replaced
	// with an empty store.
	ErrCorruptSnapshot = errors.New("corrupt store snapshot")

	// ErrInitUnavailable indicates the seed bootstrap could not run,
	// typically because the embedding provider is unreachable. Retrieval
	// stays disabled for the process lifetime.
	ErrInitUnavailable = errors.New("retrieval initialization unavailable")
)
