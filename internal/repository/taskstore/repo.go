package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TanishqMishra12/VAYO/internal/db"
	"github.com/TanishqMishra12/VAYO/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "task:"

// store is the consumer interface for the status backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo persists task records as JSON with a TTL.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a task status repository.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save overwrites the record of a task.
func (r *Repo) Save(ctx context.Context, rec domain.TaskRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", rec.TaskID, err)
	}
	if err := r.store.SetWithTTL(ctx, keyPrefix+rec.TaskID, data, r.ttl); err != nil {
		return fmt.Errorf("save task %s: %w", rec.TaskID, err)
	}
	return nil
}

// Get loads the record of a task, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, taskID string) (domain.TaskRecord, error) {
	data, err := r.store.Get(ctx, keyPrefix+taskID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.TaskRecord{}, domain.ErrNotFound
		}
		return domain.TaskRecord{}, fmt.Errorf("get task %s: %w", taskID, err)
	}

	var rec domain.TaskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.TaskRecord{}, fmt.Errorf("decode task %s: %w", taskID, err)
	}
	return rec, nil
}
