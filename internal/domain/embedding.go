package domain

import (
	"context"
)

// KeyPrefix namespaces every key this service writes to the shared Redis.
const KeyPrefix = "vayo:"

// Embedder is the shared text vectorization contract between layers.
// The same embedder must serve both the seeder and the matcher so that
// profile vectors and community vectors share one dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
