package task

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of an audio task
type Status int

// Possible task status values
const (
	StatusPending Status = iota
	StatusProcessing
	StatusRetryWaiting
	StatusSuccess
	StatusFailed
	StatusCancelled
)

var statusNames = [...]string{
	StatusPending:      "PENDING",
	StatusProcessing:   "PROCESSING",
	StatusRetryWaiting: "RETRY_WAITING",
	StatusSuccess:      "SUCCESS",
	StatusFailed:       "FAILED",
	StatusCancelled:    "CANCELLED",
}

// statusLabels are the localized labels written to the state file. Older
// state files only contain these, so they stay the canonical on-disk form.
var statusLabels = [...]string{
	StatusPending:      "待处理",
	StatusProcessing:   "处理中",
	StatusRetryWaiting: "等待重试",
	StatusSuccess:      "成功",
	StatusFailed:       "失败",
	StatusCancelled:    "已取消",
}

// String returns the English name of the status
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Label returns the localized label used in the persisted state file
func (s Status) Label() string {
	if s < 0 || int(s) >= len(statusLabels) {
		return statusLabels[StatusPending]
	}
	return statusLabels[s]
}

// IsTerminal reports whether no further transitions can occur
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// ParseStatus accepts either a localized label or an English status name.
// Unknown values decode to StatusPending so that newer or older state files
// never prevent recovery.
func ParseStatus(v string) Status {
	v = strings.TrimSpace(v)
	for i, label := range statusLabels {
		if v == label {
			return Status(i)
		}
	}
	for i, name := range statusNames {
		if strings.EqualFold(v, name) {
			return Status(i)
		}
	}
	return StatusPending
}

// Priority selects the dispatch queue for a submission
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// String returns the name of the priority
func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "normal"
}

// ParsePriority parses "normal" or "high" (case-insensitive). An empty string
// is normal priority.
func ParsePriority(v string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityNormal, fmt.Errorf("unknown priority %q", v)
	}
}

// Task is one unit of submitted audio plus its lifecycle state.
//
// ID, BlobPath, Fingerprint and CreatedAt never change after submission. The
// remaining fields are mutated either under the Manager's mutex or by the
// worker goroutine while it owns the task.
type Task struct {
	ID          string
	BlobPath    string
	Fingerprint string
	CreatedAt   time.Time
	Priority    Priority

	AttemptCount  int
	LastAttemptAt *time.Time
	NextRetryAt   *time.Time
	Status        Status
	ErrorMessage  string

	// Metadata is an opaque caller-supplied bag persisted as-is
	Metadata map[string]any
}

// clone returns a copy that shares no mutable pointers with t
func (t *Task) clone() Task {
	c := *t
	if t.LastAttemptAt != nil {
		v := *t.LastAttemptAt
		c.LastAttemptAt = &v
	}
	if t.NextRetryAt != nil {
		v := *t.NextRetryAt
		c.NextRetryAt = &v
	}
	return c
}

// Transcriber turns a WAV payload into text. An empty string is treated the
// same as a retryable error; wrap an error with Permanent to stop retries.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// TranscriberFunc adapts a plain function to the Transcriber interface
type TranscriberFunc func(ctx context.Context, wav []byte) (string, error)

// Transcribe calls f(ctx, wav)
func (f TranscriberFunc) Transcribe(ctx context.Context, wav []byte) (string, error) {
	return f(ctx, wav)
}

// Callbacks receive the terminal outcome of each task exactly once.
// Either function may be nil.
type Callbacks struct {
	OnSuccess func(taskID, text string)
	OnFailure func(taskID, reason string)
}
