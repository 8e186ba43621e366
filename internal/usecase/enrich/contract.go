package enrich

import (
	"context"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// Sanitizer cleans a bio and extracts interest tags with a language model.
type Sanitizer interface {
	Sanitize(ctx context.Context, bio string, tags []string) (domain.EnrichedProfile, error)
}
