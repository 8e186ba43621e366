package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TanishqMishra12/VAYO/internal/db"
	"github.com/TanishqMishra12/VAYO/internal/domain"
)

var latestPrefix = domain.KeyPrefix + "user_matches:"

// store is the consumer interface for the broadcast backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, ready func(), fn func(message []byte)) error
}

// Publisher caches the latest payload per user and announces it on the user's channel.
type Publisher struct {
	store store
	ttl   time.Duration
}

// New creates a publisher. Cached payloads expire after ttl.
func New(s store, ttl time.Duration) *Publisher {
	return &Publisher{store: s, ttl: ttl}
}

// Publish stores the payload as the user's latest and broadcasts it.
// The broadcast is skipped if the cache write fails.
func (p *Publisher) Publish(ctx context.Context, userID string, payload domain.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", userID, err)
	}
	if err := p.store.SetWithTTL(ctx, latestPrefix+userID, data, p.ttl); err != nil {
		return fmt.Errorf("cache matches for %s: %w", userID, err)
	}
	if err := p.store.Publish(ctx, domain.BroadcastChannel(userID), data); err != nil {
		return fmt.Errorf("broadcast matches for %s: %w", userID, err)
	}
	return nil
}

// Latest returns the raw JSON of the user's last published payload, or domain.ErrNotFound.
func (p *Publisher) Latest(ctx context.Context, userID string) ([]byte, error) {
	data, err := p.store.Get(ctx, latestPrefix+userID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get latest matches for %s: %w", userID, err)
	}
	return data, nil
}

// Subscribe calls fn with the raw JSON of every payload broadcast for the user
// until ctx is done. ready, if not nil, fires once the subscription is live.
func (p *Publisher) Subscribe(ctx context.Context, userID string, ready func(), fn func(message []byte)) error {
	if err := p.store.Subscribe(ctx, domain.BroadcastChannel(userID), ready, fn); err != nil {
		return fmt.Errorf("subscribe to matches for %s: %w", userID, err)
	}
	return nil
}
