package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/murmur/internal/api/shared"
	"github.com/phrazzld/murmur/internal/task"
)

// MapErrorToStatusCode maps manager errors to HTTP status codes
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, task.ErrDuplicateTask):
		return http.StatusConflict
	case errors.Is(err, task.ErrInvalidAudio):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that reveals
// no internal detail
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, task.ErrNotFound):
		return "Task not found or no longer cancellable"
	case errors.Is(err, task.ErrDuplicateTask):
		return "Task id already in use"
	case errors.Is(err, task.ErrInvalidAudio):
		return "Invalid audio payload"
	case errors.Is(err, shared.ErrBodyTooLarge):
		return "Audio payload too large"
	case errors.Is(err, task.ErrQueueFull):
		return "Queue is full, try again later"
	case errors.Is(err, task.ErrQueueClosed):
		return "Queue is shutting down"
	default:
		return "An unexpected error occurred"
	}
}

// respondWithMappedError writes the status and safe message for err
func respondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
