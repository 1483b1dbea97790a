package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the lifecycle transition an event describes
type Kind string

// Lifecycle event kinds
const (
	KindSubmitted      Kind = "submitted"
	KindRetryScheduled Kind = "retry_scheduled"
	KindPromoted       Kind = "promoted"
	KindSucceeded      Kind = "succeeded"
	KindFailed         Kind = "failed"
	KindCancelled      Kind = "cancelled"
	KindDropped        Kind = "dropped"
)

// LifecycleEvent represents one state change of an audio task.
type LifecycleEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Kind is the transition that happened
	Kind Kind `json:"kind"`

	// TaskID is the id of the task that changed
	TaskID string `json:"task_id"`

	// Attempt is the number of attempts made so far
	Attempt int `json:"attempt"`

	// Delay is the backoff before the next attempt, set for KindRetryScheduled
	Delay time.Duration `json:"delay,omitempty"`

	// Message carries the failure reason or other human-readable detail
	Message string `json:"message,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewLifecycleEvent creates a new LifecycleEvent for the given task.
func NewLifecycleEvent(kind Kind, taskID string, attempt int) *LifecycleEvent {
	return &LifecycleEvent{
		ID:        uuid.New(),
		Kind:      kind,
		TaskID:    taskID,
		Attempt:   attempt,
		CreatedAt: time.Now(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *LifecycleEvent) error
}

// HandlerFunc adapts a plain function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *LifecycleEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *LifecycleEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the queue to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *LifecycleEvent) error
}
