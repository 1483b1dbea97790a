package api

import (
	"time"

	"github.com/phrazzld/murmur/internal/redact"
	"github.com/phrazzld/murmur/internal/task"
)

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Running           bool     `json:"running"`
	PendingCount      int      `json:"pending_count"`
	HighPriorityCount int      `json:"high_priority_count"`
	RetryCount        int      `json:"retry_count"`
	ActiveTask        string   `json:"active_task,omitempty"`
	MaxRetryAttempts  int      `json:"max_retry_attempts"`
	BaseDelaySeconds  float64  `json:"base_delay_seconds"`
	RetryDelays       []string `json:"retry_delays"`
}

// TaskResponse describes one entry of the retry table
type TaskResponse struct {
	ID            string         `json:"id"`
	Fingerprint   string         `json:"fingerprint"`
	Priority      string         `json:"priority"`
	Status        string         `json:"status"`
	AttemptCount  int            `json:"attempt_count"`
	CreatedAt     time.Time      `json:"created_at"`
	LastAttemptAt *time.Time     `json:"last_attempt_at,omitempty"`
	NextRetryAt   *time.Time     `json:"next_retry_at,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TaskListResponse is the body of GET /api/tasks/retrying
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// SubmitResponse is the body of POST /api/tasks
type SubmitResponse struct {
	ID              string  `json:"id"`
	Priority        string  `json:"priority"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// SubmitParams are the query parameters accepted by POST /api/tasks
type SubmitParams struct {
	ID       string `validate:"omitempty,max=128,excludesall=/\\"`
	Priority string `validate:"omitempty,oneof=normal high"`
	Source   string `validate:"omitempty,max=64"`
}

// CancelRequest is the optional body of DELETE /api/tasks/{id}
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=256"`
}

// ClearResponse is the body of POST /api/tasks/clear-failed
type ClearResponse struct {
	Cleared int `json:"cleared"`
}

func summaryToResponse(s task.Summary, delays []time.Duration) StatusResponse {
	resp := StatusResponse{
		Running:           s.Running,
		PendingCount:      s.PendingCount,
		HighPriorityCount: s.HighPriorityCount,
		RetryCount:        s.RetryCount,
		ActiveTask:        s.ActiveTask,
		MaxRetryAttempts:  s.MaxRetryAttempts,
		BaseDelaySeconds:  s.BaseDelay.Seconds(),
		RetryDelays:       make([]string, len(delays)),
	}
	for i, d := range delays {
		resp.RetryDelays[i] = d.String()
	}
	return resp
}

func taskToResponse(t task.Task) TaskResponse {
	return TaskResponse{
		ID:            t.ID,
		Fingerprint:   t.Fingerprint,
		Priority:      t.Priority.String(),
		Status:        t.Status.String(),
		AttemptCount:  t.AttemptCount,
		CreatedAt:     t.CreatedAt,
		LastAttemptAt: t.LastAttemptAt,
		NextRetryAt:   t.NextRetryAt,
		ErrorMessage:  redact.String(t.ErrorMessage),
		Metadata:      t.Metadata,
	}
}
