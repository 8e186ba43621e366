package domain

import "time"

// TaskState is the lifecycle state of a match task in the status backend.
type TaskState string

// Task states.
const (
	TaskPending TaskState = "pending"
	TaskStarted TaskState = "started"
	TaskSuccess TaskState = "success"
	TaskFailure TaskState = "failure"
)

// Terminal reports whether no further transition can happen.
func (s TaskState) Terminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// TaskMessage is the queue envelope for one match task.
type TaskMessage struct {
	TaskID     string      `json:"task_id"`
	Profile    UserProfile `json:"profile"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// Expired reports whether the task missed its start window at now.
func (m TaskMessage) Expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && now.After(m.ExpiresAt)
}

// TaskRecord is what the status backend stores per task.
type TaskRecord struct {
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id,omitempty"`
	State     TaskState `json:"state"`
	Payload   *Payload  `json:"payload,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ticket acknowledges an accepted match request.
type Ticket struct {
	TaskID           string `json:"task_id"`
	Status           string `json:"status"`
	EstimatedTimeMS  int    `json:"estimated_time_ms"`
	WebsocketChannel string `json:"websocket_channel"`
}

// StatusProcessing is reported while a task has no terminal payload yet.
const StatusProcessing = "processing"
