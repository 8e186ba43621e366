package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxRanked is how many vector matches the ranker may return for one task.
const MaxRanked = 10

// MaxMatches is the length cap of a published match list.
const MaxMatches = 5

// StatusFailed is the status value of a failure payload.
const StatusFailed = "failed"

// VectorMatch is a ranker hit: a community id and its similarity score.
type VectorMatch struct {
	CommunityID string
	Score       float64
}

// Match is a vector hit joined with the community record.
type Match struct {
	CommunityID    string  `json:"community_id"`
	CommunityName  string  `json:"community_name"`
	Category       string  `json:"category"`
	MatchScore     float64 `json:"match_score"`
	MemberCount    int     `json:"member_count"`
	RecentActivity int     `json:"recent_activity"`
}

// NewMatch joins a community record with a score.
func NewMatch(c Community, score float64) Match {
	return Match{
		CommunityID:    c.ID,
		CommunityName:  c.Name,
		Category:       c.Category,
		MatchScore:     score,
		MemberCount:    c.MemberCount,
		RecentActivity: c.RecentActivity,
	}
}

// MatchResult is the terminal artifact of a successful pipeline run.
type MatchResult struct {
	TaskID           string  `json:"task_id"`
	UserID           string  `json:"user_id"`
	Tier             Tier    `json:"tier"`
	Matches          []Match `json:"matches"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
}

// Failure is the terminal artifact of a failed pipeline run.
type Failure struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// NewFailure builds a failure payload from an error.
func NewFailure(taskID string, err error) Failure {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Failure{TaskID: taskID, Status: StatusFailed, Error: msg}
}

// Payload is exactly one of a MatchResult or a Failure.
type Payload struct {
	Result  *MatchResult
	Failure *Failure
}

// SuccessPayload wraps a result.
func SuccessPayload(r MatchResult) Payload { return Payload{Result: &r} }

// FailurePayload wraps a failure.
func FailurePayload(taskID string, err error) Payload {
	f := NewFailure(taskID, err)
	return Payload{Failure: &f}
}

// Failed reports whether the payload is a failure.
func (p Payload) Failed() bool { return p.Failure != nil }

// TaskID returns the task id of whichever side is set.
func (p Payload) TaskID() string {
	switch {
	case p.Result != nil:
		return p.Result.TaskID
	case p.Failure != nil:
		return p.Failure.TaskID
	default:
		return ""
	}
}

// MarshalJSON emits the success or the failure shape.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch {
	case p.Result != nil:
		r := *p.Result
		if r.Matches == nil {
			r.Matches = []Match{}
		}
		return json.Marshal(r)
	case p.Failure != nil:
		return json.Marshal(p.Failure)
	default:
		return nil, errors.New("empty payload")
	}
}

// UnmarshalJSON detects the failure shape by its status field.
func (p *Payload) UnmarshalJSON(b []byte) error {
	var head struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if head.Status == StatusFailed {
		var f Failure
		if err := json.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("decode failure payload: %w", err)
		}
		*p = Payload{Failure: &f}
		return nil
	}
	var r MatchResult
	if err := json.Unmarshal(b, &r); err != nil {
		return fmt.Errorf("decode result payload: %w", err)
	}
	*p = Payload{Result: &r}
	return nil
}
