package seed

import (
	"context"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// CommunityLister reads every active community.
type CommunityLister interface {
	ListAll(ctx context.Context) ([]domain.Community, error)
}

// Embedder vectorizes community text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index is the community vector index being populated.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Reset(ctx context.Context) error
	Upsert(ctx context.Context, c domain.Community, vector []float32) error
}
