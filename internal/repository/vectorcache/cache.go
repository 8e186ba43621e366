package vectorcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TanishqMishra12/VAYO/internal/db"
	"github.com/TanishqMishra12/VAYO/internal/domain"
)

var userVectorPrefix = domain.KeyPrefix + "user_vector:"

// kvStore is the consumer interface for the vector caches (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache keeps the latest profile vector per user.
type Cache struct {
	store kvStore
	ttl   time.Duration
}

// New creates a user vector cache. Entries expire after ttl.
func New(s kvStore, ttl time.Duration) *Cache {
	return &Cache{store: s, ttl: ttl}
}

// Put stores the vector of a user.
func (c *Cache) Put(ctx context.Context, userID string, vec []float32) error {
	if err := c.store.SetWithTTL(ctx, userVectorPrefix+userID, db.EncodeVector(vec), c.ttl); err != nil {
		return fmt.Errorf("cache vector for %s: %w", userID, err)
	}
	return nil
}

// Get returns the cached vector of a user, or domain.ErrNotFound.
func (c *Cache) Get(ctx context.Context, userID string) ([]float32, error) {
	data, err := c.store.Get(ctx, userVectorPrefix+userID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get cached vector for %s: %w", userID, err)
	}
	vec, err := db.DecodeVector(data)
	if err != nil {
		return nil, fmt.Errorf("decode cached vector for %s: %w", userID, err)
	}
	return vec, nil
}
