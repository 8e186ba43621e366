package task

import (
	"encoding/json"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// StatusView is what a poller sees: the terminal payload once there is one,
// otherwise a processing marker.
type StatusView struct {
	TaskID  string
	Payload *domain.Payload
}

// Done reports whether the task reached a terminal state.
func (v StatusView) Done() bool { return v.Payload != nil }

// MarshalJSON emits the terminal payload verbatim or {task_id, status: "processing"}.
func (v StatusView) MarshalJSON() ([]byte, error) {
	if v.Payload != nil {
		return json.Marshal(v.Payload)
	}
	return json.Marshal(struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
	}{TaskID: v.TaskID, Status: domain.StatusProcessing})
}
