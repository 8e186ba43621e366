package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	"github.com/TanishqMishra12/VAYO/internal/logger"
	"github.com/TanishqMishra12/VAYO/internal/metrics"
)

// Config holds task lifecycle settings.
type Config struct {
	// Expiry is how long a queued task may wait before a worker drops it.
	Expiry time.Duration
	// EstimatedTime is reported to clients in the ticket.
	EstimatedTime time.Duration
}

// Service submits match tasks, reports their status and executes them on workers.
type Service struct {
	store  Store
	queue  Queue
	runner Runner
	cfg    Config
	now    func() time.Time
	newID  func() string
}

// New creates a task service. queue is nil on workers, runner is nil on the API.
func New(store Store, queue Queue, runner Runner, cfg Config) *Service {
	return &Service{
		store:  store,
		queue:  queue,
		runner: runner,
		cfg:    cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Submit records a pending task and enqueues it.
func (s *Service) Submit(ctx context.Context, profile domain.UserProfile) (domain.Ticket, error) {
	if s.queue == nil {
		return domain.Ticket{}, errors.New("task queue not configured")
	}

	taskID := s.newID()
	now := s.now()

	if err := s.store.Save(ctx, domain.TaskRecord{
		TaskID: taskID, UserID: profile.UserID, State: domain.TaskPending, UpdatedAt: now,
	}); err != nil {
		return domain.Ticket{}, fmt.Errorf("record pending task: %w", err)
	}

	msg := domain.TaskMessage{
		TaskID:     taskID,
		Profile:    profile,
		EnqueuedAt: now,
		ExpiresAt:  now.Add(s.cfg.Expiry),
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		return domain.Ticket{}, fmt.Errorf("enqueue task: %w", err)
	}

	return domain.Ticket{
		TaskID:           taskID,
		Status:           domain.StatusProcessing,
		EstimatedTimeMS:  int(s.cfg.EstimatedTime.Milliseconds()),
		WebsocketChannel: domain.BroadcastChannel(profile.UserID),
	}, nil
}

// Status returns the poller view of a task. Unknown ids read as processing.
func (s *Service) Status(ctx context.Context, taskID string) (StatusView, error) {
	rec, err := s.store.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return StatusView{TaskID: taskID}, nil
		}
		return StatusView{}, fmt.Errorf("get task status: %w", err)
	}

	if !rec.State.Terminal() || rec.Payload == nil {
		return StatusView{TaskID: taskID}, nil
	}
	return StatusView{TaskID: taskID, Payload: rec.Payload}, nil
}

// Execute runs one dequeued task and stores its terminal payload.
// Tasks past their expiry are failed without running.
func (s *Service) Execute(ctx context.Context, msg domain.TaskMessage) error {
	ctx = logger.WithTask(ctx, msg.TaskID, msg.Profile.UserID)
	log := logger.FromContext(ctx)

	if msg.Expired(s.now()) {
		metrics.MatchTasksTotal.WithLabelValues("expired").Inc()
		log.Warn("task expired before start",
			zap.Time("enqueued_at", msg.EnqueuedAt), zap.Time("expires_at", msg.ExpiresAt))
		return s.finish(ctx, msg, domain.FailurePayload(msg.TaskID, domain.ErrTaskExpired))
	}

	if err := s.store.Save(ctx, domain.TaskRecord{
		TaskID: msg.TaskID, UserID: msg.Profile.UserID, State: domain.TaskStarted, UpdatedAt: s.now(),
	}); err != nil {
		log.Warn("failed to mark task started", zap.Error(err))
	}

	return s.finish(ctx, msg, s.runner.Run(ctx, msg.TaskID, msg.Profile))
}

func (s *Service) finish(ctx context.Context, msg domain.TaskMessage, p domain.Payload) error {
	state := domain.TaskSuccess
	if p.Failed() {
		state = domain.TaskFailure
	}
	if err := s.store.Save(ctx, domain.TaskRecord{
		TaskID: msg.TaskID, UserID: msg.Profile.UserID, State: state, Payload: &p, UpdatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("store task result: %w", err)
	}
	return nil
}
