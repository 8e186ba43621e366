package match

import (
	"context"

	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	"github.com/TanishqMishra12/VAYO/internal/logger"
)

// merge joins ranker hits with community records in ranker order.
// Hits without a record are dropped; an empty join is domain.ErrEmptyMerge.
func merge(ctx context.Context, hits []domain.VectorMatch, byID map[string]domain.Community) ([]domain.Match, error) {
	out := make([]domain.Match, 0, len(hits))
	for _, h := range hits {
		c, ok := byID[h.CommunityID]
		if !ok {
			continue
		}
		out = append(out, domain.NewMatch(c, h.Score))
	}

	if dropped := len(hits) - len(out); dropped > 0 {
		// Index and store are out of sync.
		logger.FromContext(ctx).Warn("ranked communities missing from candidate set",
			zap.Int("dropped", dropped), zap.Int("ranked", len(hits)))
	}

	if len(out) == 0 {
		return nil, domain.ErrEmptyMerge
	}
	return out, nil
}

func indexByID(cs []domain.Community) map[string]domain.Community {
	m := make(map[string]domain.Community, len(cs))
	for _, c := range cs {
		m[c.ID] = c
	}
	return m
}
