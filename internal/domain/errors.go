package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidProfile signals a profile that failed validation.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrEmptyMerge signals that the vector index and the community store
	// disagree on which communities exist. The message is part of the
	// failure payload contract.
	ErrEmptyMerge = errors.New("No matching communities after merge") //nolint:staticcheck // ST1005: exact text of the failure payload
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrTaskExpired signals a task that was not picked up within its expiry window.
	ErrTaskExpired = errors.New("task expired before start")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
