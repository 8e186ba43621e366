package enrich

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	"github.com/TanishqMishra12/VAYO/internal/logger"
	"github.com/TanishqMishra12/VAYO/internal/metrics"
)

// Config tunes the circuit breaker around the sanitizer.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Service enriches profiles. It never fails: when the sanitizer is missing,
// erroring or behind an open breaker, the bio is redacted locally and the
// original tags are kept.
type Service struct {
	sanitizer Sanitizer
	cb        *gobreaker.CircuitBreaker[domain.EnrichedProfile]
}

// New creates an enrichment service. sanitizer can be nil.
func New(sanitizer Sanitizer, cfg Config, log *zap.Logger) *Service {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	threshold := cfg.FailureThreshold

	cb := gobreaker.NewCircuitBreaker[domain.EnrichedProfile](gobreaker.Settings{
		Name:        "enrichment",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Service{sanitizer: sanitizer, cb: cb}
}

// Enrich returns the sanitized bio and enriched tags.
func (s *Service) Enrich(ctx context.Context, bio string, tags []string) domain.EnrichedProfile {
	if s.sanitizer == nil {
		metrics.EnrichmentTotal.WithLabelValues("disabled").Inc()
		return fallback(bio, tags)
	}

	profile, err := s.cb.Execute(func() (domain.EnrichedProfile, error) {
		return s.sanitizer.Sanitize(ctx, bio, tags)
	})
	if err != nil {
		result := "fallback"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "breaker_open"
		}
		metrics.EnrichmentTotal.WithLabelValues(result).Inc()
		logger.FromContext(ctx).Warn("enrichment degraded to local redaction",
			zap.String("reason", result), zap.Error(err))
		return fallback(bio, tags)
	}

	metrics.EnrichmentTotal.WithLabelValues("llm").Inc()
	return profile
}

func fallback(bio string, tags []string) domain.EnrichedProfile {
	kept := make([]string, len(tags))
	copy(kept, tags)
	return domain.EnrichedProfile{
		SanitizedBio: RedactPII(bio),
		EnrichedTags: kept,
		PIIFound:     false,
	}
}
