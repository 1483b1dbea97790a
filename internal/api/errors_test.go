package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/murmur/internal/api/shared"
	"github.com/phrazzld/murmur/internal/task"
	"github.com/stretchr/testify/assert"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("%w: x", task.ErrNotFound), http.StatusNotFound, "Task not found or no longer cancellable"},
		{task.ErrDuplicateTask, http.StatusConflict, "Task id already in use"},
		{fmt.Errorf("%w: bad header", task.ErrInvalidAudio), http.StatusBadRequest, "Invalid audio payload"},
		{shared.ErrBodyTooLarge, http.StatusRequestEntityTooLarge, "Audio payload too large"},
		{task.ErrQueueFull, http.StatusServiceUnavailable, "Queue is full, try again later"},
		{task.ErrQueueClosed, http.StatusServiceUnavailable, "Queue is shutting down"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.message, GetSafeErrorMessage(tt.err))
		})
	}

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}
