package match

import (
	"context"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// Enricher sanitizes a bio and augments tags. It never fails.
type Enricher interface {
	Enrich(ctx context.Context, bio string, tags []string) domain.EnrichedProfile
}

// Embedder vectorizes the enriched profile text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CandidatePool reads communities from the relational store.
type CandidatePool interface {
	FilterByLocation(ctx context.Context, city, timezone string) ([]domain.Community, error)
	Popular(ctx context.Context, limit int) ([]domain.Community, error)
}

// VectorRanker returns up to k communities from ids ordered by descending similarity.
type VectorRanker interface {
	Search(ctx context.Context, vector []float32, ids []string, k int) ([]domain.VectorMatch, error)
}

// VectorCache keeps the latest profile vector of a user.
type VectorCache interface {
	Put(ctx context.Context, userID string, vector []float32) error
}

// ResultPublisher caches and broadcasts a terminal payload for a user.
type ResultPublisher interface {
	Publish(ctx context.Context, userID string, payload domain.Payload) error
}
