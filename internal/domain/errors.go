package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document row.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrTenantRequired signals a retrieval issued without a tenant predicate.
	// This is a programming error on the caller's side, never a degraded query.
	ErrTenantRequired = errors.New("tenant id is required")
	// ErrEmptyContent signals an ingestion call with no usable text.
	ErrEmptyContent = errors.New("empty content")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnavailable signals that the index/store did not respond; retryable by the caller.
	ErrUnavailable = errors.New("store unavailable")
)
