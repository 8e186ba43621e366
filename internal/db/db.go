package db

import (
	"context"
	"time"
)

// Store is the Redis facade shared by the cache, status backend, broadcast and vector index.
//
//nolint:interfacebloat // facade; consumers depend on the narrow sub-interfaces below
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	PubSub
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides vector search over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// PubSub publishes and receives channel messages.
type PubSub interface {
	Publish(ctx context.Context, channel string, message []byte) error
	// Subscribe blocks, calling fn for every message, until ctx is done.
	// ready, if not nil, is called once the server confirms the subscription.
	Subscribe(ctx context.Context, channel string, ready func(), fn func(message []byte)) error
}
