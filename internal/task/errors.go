package task

import (
	"errors"
	"fmt"
)

// Common errors returned by the Manager and its collaborators
var (
	ErrQueueClosed    = errors.New("task queue is closed")
	ErrQueueFull      = errors.New("task queue is full")
	ErrAlreadyRunning = errors.New("manager is already running")
	ErrStillStopping  = errors.New("manager loops from the previous run have not exited")
	ErrNotFound       = errors.New("task not found")
	ErrDuplicateTask  = errors.New("task id already in use")

	// ErrPermanent marks a transcription failure that must not be retried.
	// Wrap errors with Permanent rather than returning it directly.
	ErrPermanent = errors.New("permanent transcription failure")

	// ErrEmptyResult is recorded when the transcriber returns no usable text.
	ErrEmptyResult = errors.New("transcription returned an empty result")

	// ErrMissingAudio is returned when a task's blob is no longer on disk.
	ErrMissingAudio = errors.New("audio blob is missing")

	// ErrInvalidAudio is returned for payloads that cannot be stored or decoded.
	ErrInvalidAudio = errors.New("invalid audio")
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() []error {
	return []error{ErrPermanent, e.err}
}

// Permanent wraps err so that the Manager fails the task immediately instead
// of scheduling another attempt. The original error stays reachable through
// errors.Is and errors.As.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// BlobError describes a failed blob store operation.
type BlobError struct {
	Op   string // "write", "read", "delete"
	Path string
	Err  error
}

// Error implements the error interface for BlobError.
func (e *BlobError) Error() string {
	return fmt.Sprintf("blob %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *BlobError) Unwrap() error {
	return e.Err
}
