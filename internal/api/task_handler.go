package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/murmur/internal/api/shared"
	"github.com/phrazzld/murmur/internal/platform/logger"
	"github.com/phrazzld/murmur/internal/task"
)

// TaskManager is the part of task.Manager the handlers drive
type TaskManager interface {
	Submit(ctx context.Context, audio task.Audio, opts ...task.SubmitOption) (string, error)
	Status() task.Summary
	RetryDelays() []time.Duration
	RetryTasks() []task.Task
	Cancel(ctx context.Context, id, reason string) error
	ClearFailedTasks() int
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	manager      TaskManager
	sampleRate   int
	maxBodyBytes int64
}

// NewTaskHandler creates a TaskHandler. Uploaded recordings must match
// sampleRate and be at most maxBodyBytes long.
func NewTaskHandler(manager TaskManager, sampleRate int, maxBodyBytes int64) *TaskHandler {
	return &TaskHandler{
		manager:      manager,
		sampleRate:   sampleRate,
		maxBodyBytes: maxBodyBytes,
	}
}

// GetStatus handles GET /api/status
func (h *TaskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := summaryToResponse(h.manager.Status(), h.manager.RetryDelays())
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ListRetrying handles GET /api/tasks/retrying
func (h *TaskHandler) ListRetrying(w http.ResponseWriter, r *http.Request) {
	tasks := h.manager.RetryTasks()

	resp := TaskListResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Count: len(tasks),
	}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// SubmitTask handles POST /api/tasks. The body is a 16-bit PCM WAV file;
// id, priority and source are optional query parameters.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := SubmitParams{
		ID:       query.Get("id"),
		Priority: strings.ToLower(query.Get("priority")),
		Source:   query.Get("source"),
	}
	if err := shared.ValidateRequest(params); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	body, err := shared.ReadBody(w, r, h.maxBodyBytes)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}
	if len(body) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Audio payload is required")
		return
	}

	audio, err := task.DecodeWAV(bytes.NewReader(body))
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}
	if h.sampleRate > 0 && audio.SampleRate != h.sampleRate {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("Unsupported sample rate %d, expected %d", audio.SampleRate, h.sampleRate))
		return
	}

	priority, err := task.ParsePriority(params.Priority)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid priority", err)
		return
	}

	opts := []task.SubmitOption{task.WithPriority(priority)}
	if params.ID != "" {
		opts = append(opts, task.WithID(params.ID))
	}
	if params.Source != "" {
		opts = append(opts, task.WithMetadata(map[string]any{"source": params.Source}))
	}

	id, err := h.manager.Submit(r.Context(), audio, opts...)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("audio submitted over API",
		"task_id", id,
		"priority", priority.String(),
		"duration", audio.Duration())

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		ID:              id,
		Priority:        priority.String(),
		DurationSeconds: audio.Duration().Seconds(),
	})
}

// CancelTask handles DELETE /api/tasks/{id}
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task id is required")
		return
	}

	var req CancelRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request", err)
		return
	}
	if req.Reason == "" {
		req.Reason = "cancelled via API"
	}

	if err := h.manager.Cancel(r.Context(), id, req.Reason); err != nil {
		respondWithMappedError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearFailed handles POST /api/tasks/clear-failed
func (h *TaskHandler) ClearFailed(w http.ResponseWriter, r *http.Request) {
	cleared := h.manager.ClearFailedTasks()
	shared.RespondWithJSON(w, r, http.StatusOK, ClearResponse{Cleared: cleared})
}
