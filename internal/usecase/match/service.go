package match

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	"github.com/TanishqMishra12/VAYO/internal/logger"
	"github.com/TanishqMishra12/VAYO/internal/metrics"
)

const (
	branchVector  = "vector"
	branchPopular = "popular"
)

// Deps are the collaborators of the pipeline. All are required.
type Deps struct {
	Enricher  Enricher
	Embedder  Embedder
	Pool      CandidatePool
	Ranker    VectorRanker
	Cache     VectorCache
	Publisher ResultPublisher
}

// Service runs the match pipeline for one task at a time per call.
// It holds no per-task state and is safe for concurrent use.
type Service struct {
	deps         Deps
	popularLimit int
	now          func() time.Time
}

// New creates a match service. popularLimit bounds the structural fallback query.
func New(deps Deps, popularLimit int) *Service {
	if popularLimit <= 0 {
		popularLimit = 10
	}
	return &Service{deps: deps, popularLimit: popularLimit, now: time.Now}
}

// Run executes the pipeline and always returns a terminal payload.
// Errors and panics become a failure payload carrying taskID.
func (s *Service) Run(ctx context.Context, taskID string, profile domain.UserProfile) (payload domain.Payload) {
	start := s.now()
	ctx = logger.WithTask(ctx, taskID, profile.UserID)
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("match pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			payload = s.fail(ctx, taskID, fmt.Errorf("internal error: %v", r), start)
		}
	}()

	result, branch, err := s.run(ctx, taskID, profile, start)
	if err != nil {
		return s.fail(ctx, taskID, err, start)
	}

	metrics.MatchTasksTotal.WithLabelValues("success").Inc()
	metrics.MatchTierTotal.WithLabelValues(string(result.Tier)).Inc()
	metrics.MatchBranchTotal.WithLabelValues(branch).Inc()
	metrics.MatchDuration.Observe(s.now().Sub(start).Seconds())
	log.Info("match_task_finished",
		zap.String("outcome", "success"),
		zap.String("branch", branch),
		zap.String("tier", string(result.Tier)),
		zap.Int("matches", len(result.Matches)),
		zap.Int64("processing_time_ms", result.ProcessingTimeMS),
	)
	return domain.SuccessPayload(result)
}

func (s *Service) run(
	ctx context.Context, taskID string, profile domain.UserProfile, start time.Time,
) (domain.MatchResult, string, error) {
	enriched := s.deps.Enricher.Enrich(ctx, profile.Bio, profile.InterestTags)

	emb, err := s.deps.Embedder.Embed(ctx, enriched.EmbeddingText())
	if err != nil {
		return domain.MatchResult{}, "", fmt.Errorf("embed profile: %w", err)
	}

	s.bestEffort(ctx, "cache_vector", func() error {
		return s.deps.Cache.Put(ctx, profile.UserID, emb.Embedding)
	})

	candidates, err := s.deps.Pool.FilterByLocation(ctx, profile.City, profile.Timezone)
	if err != nil {
		return domain.MatchResult{}, "", fmt.Errorf("filter candidates: %w", err)
	}

	var (
		matches []domain.Match
		tier    domain.Tier
		branch  string
	)
	if len(candidates) == 0 {
		branch = branchPopular
		tier = domain.TierFallback
		matches, err = s.popular(ctx)
	} else {
		branch = branchVector
		matches, tier, err = s.rank(ctx, emb.Embedding, candidates)
	}
	if err != nil {
		return domain.MatchResult{}, branch, err
	}

	if len(matches) > domain.MaxMatches {
		matches = matches[:domain.MaxMatches]
	}

	result := domain.MatchResult{
		TaskID:           taskID,
		UserID:           profile.UserID,
		Tier:             tier,
		Matches:          matches,
		ProcessingTimeMS: s.now().Sub(start).Milliseconds(),
	}

	s.bestEffort(ctx, "publish", func() error {
		return s.deps.Publisher.Publish(ctx, profile.UserID, domain.SuccessPayload(result))
	})

	return result, branch, nil
}

// popular builds zero-score matches from the most popular communities.
func (s *Service) popular(ctx context.Context) ([]domain.Match, error) {
	cs, err := s.deps.Pool.Popular(ctx, s.popularLimit)
	if err != nil {
		return nil, fmt.Errorf("popular communities: %w", err)
	}
	matches := make([]domain.Match, len(cs))
	for i, c := range cs {
		matches[i] = domain.NewMatch(c, 0.0)
	}
	return matches, nil
}

// rank searches the candidates, merges, diversifies and classifies.
func (s *Service) rank(
	ctx context.Context, vector []float32, candidates []domain.Community,
) ([]domain.Match, domain.Tier, error) {
	hits, err := s.deps.Ranker.Search(ctx, vector, domain.CommunityIDs(candidates), domain.MaxRanked)
	if err != nil {
		return nil, "", fmt.Errorf("rank candidates: %w", err)
	}
	if len(hits) > domain.MaxRanked {
		hits = hits[:domain.MaxRanked]
	}

	merged, err := merge(ctx, hits, indexByID(candidates))
	if err != nil {
		return nil, "", err
	}

	ordered := diversify(merged)
	return ordered, domain.ClassifyTier(ordered[0].MatchScore), nil
}

// bestEffort runs a side effect whose failure must not abort the task.
func (s *Service) bestEffort(ctx context.Context, op string, fn func() error) {
	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			metrics.BestEffortFailuresTotal.WithLabelValues(op).Inc()
			log.Warn("best-effort step panicked", zap.String("op", op), zap.Any("panic", r))
		}
	}()

	if err := fn(); err != nil {
		metrics.BestEffortFailuresTotal.WithLabelValues(op).Inc()
		log.Warn("best-effort step failed", zap.String("op", op), zap.Error(err))
	}
}

func (s *Service) fail(ctx context.Context, taskID string, err error, start time.Time) domain.Payload {
	metrics.MatchTasksTotal.WithLabelValues("failure").Inc()
	metrics.MatchDuration.Observe(s.now().Sub(start).Seconds())
	logger.FromContext(ctx).Error("match_task_finished",
		zap.String("outcome", "failure"),
		zap.Error(err),
		zap.Int64("processing_time_ms", s.now().Sub(start).Milliseconds()),
	)
	return domain.FailurePayload(taskID, err)
}
