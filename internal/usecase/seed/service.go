package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Report summarizes a seeding run.
type Report struct {
	Total   int
	Indexed int
	Failed  int
	Tokens  int
}

// Service embeds communities and writes them to the vector index.
type Service struct {
	communities CommunityLister
	embed       Embedder
	index       Index
	logger      *zap.Logger
}

// New creates a seeding service.
func New(communities CommunityLister, embed Embedder, index Index, logger *zap.Logger) *Service {
	return &Service{communities: communities, embed: embed, index: index, logger: logger}
}

// Run indexes every active community. With reset the index is dropped first.
// Per-community failures are logged and skipped; the returned error joins them.
func (s *Service) Run(ctx context.Context, reset bool) (Report, error) {
	if reset {
		if err := s.index.Reset(ctx); err != nil {
			return Report{}, fmt.Errorf("reset index: %w", err)
		}
	}
	if err := s.index.EnsureIndex(ctx); err != nil {
		return Report{}, fmt.Errorf("ensure index: %w", err)
	}

	cs, err := s.communities.ListAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list communities: %w", err)
	}

	rep := Report{Total: len(cs)}
	var errs []error
	for _, c := range cs {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("seeding interrupted: %w", err)
		}

		emb, err := s.embed.Embed(ctx, c.IndexText())
		if err != nil {
			rep.Failed++
			errs = append(errs, fmt.Errorf("embed %s: %w", c.ID, err))
			s.logger.Warn("failed to embed community", zap.String("community_id", c.ID), zap.Error(err))
			continue
		}
		rep.Tokens += emb.TotalTokens

		if err := s.index.Upsert(ctx, c, emb.Embedding); err != nil {
			rep.Failed++
			errs = append(errs, fmt.Errorf("upsert %s: %w", c.ID, err))
			s.logger.Warn("failed to index community", zap.String("community_id", c.ID), zap.Error(err))
			continue
		}
		rep.Indexed++
	}

	s.logger.Info("seeding finished",
		zap.Int("total", rep.Total),
		zap.Int("indexed", rep.Indexed),
		zap.Int("failed", rep.Failed),
		zap.Int("tokens", rep.Tokens),
	)

	if len(errs) > 0 {
		return rep, fmt.Errorf("%d of %d communities failed: %w", rep.Failed, rep.Total, errors.Join(errs...))
	}
	return rep, nil
}
