package task

import (
	"context"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// Store persists task records.
type Store interface {
	Save(ctx context.Context, rec domain.TaskRecord) error
	Get(ctx context.Context, taskID string) (domain.TaskRecord, error)
}

// Queue dispatches tasks to workers.
type Queue interface {
	Enqueue(ctx context.Context, msg domain.TaskMessage) error
}

// Runner executes the match pipeline. It always returns a terminal payload.
type Runner interface {
	Run(ctx context.Context, taskID string, profile domain.UserProfile) domain.Payload
}
