package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/murmur/internal/events"
	"github.com/phrazzld/murmur/internal/redact"
)

// worker is the single consumer of both dispatch queues. High-priority work
// is always taken first; otherwise it blocks on the normal queue for at most
// PollTimeout so that new high-priority work and shutdown are noticed.
func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()

	m.logger.Debug("starting worker")

	for {
		if ctx.Err() != nil {
			m.logger.Debug("stopping worker")
			return
		}

		queue := m.high
		task, ok := m.high.TryDequeue()
		if !ok {
			queue = m.normal
			task, ok = m.normal.Dequeue(ctx, m.config.PollTimeout)
		}
		if !ok {
			continue
		}

		if !m.claim(ctx, task) {
			// Stopped between dequeue and claim; leave the task where it was
			queue.requeueFront(task)
			m.logger.Debug("stopping worker")
			return
		}

		m.processTask(ctx, task)
	}
}

// claim marks task as the active task and counts the attempt
func (m *Manager) claim(ctx context.Context, task *Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	now := time.Now()
	task.Status = StatusProcessing
	task.AttemptCount++
	task.LastAttemptAt = &now
	task.NextRetryAt = nil
	m.active = task
	return true
}

// processTask runs one attempt and records its outcome
func (m *Manager) processTask(ctx context.Context, task *Task) {
	logger := m.logger.With(
		"task_id", task.ID,
		"fingerprint", task.Fingerprint,
		"attempt", task.AttemptCount,
		"max_attempts", m.config.MaxRetryAttempts,
	)
	defer m.clearActive(task)

	logger.Info("processing audio task")

	wav, err := m.blobs.Read(task.BlobPath)
	if err != nil {
		if errors.Is(err, ErrMissingAudio) {
			logger.Error("audio blob missing, failing task", "path", task.BlobPath)
			m.fail(ctx, task, ErrMissingAudio.Error())
			return
		}
		logger.Warn("failed to read audio blob", "error", err)
		m.handleFailure(ctx, task, err)
		return
	}

	started := time.Now()
	text, err := m.transcribe(ctx, wav)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = ErrEmptyResult
	}
	if err != nil {
		logger.Warn("transcription attempt failed",
			"error", redact.Error(err),
			"elapsed", time.Since(started))
		m.handleFailure(ctx, task, err)
		return
	}

	logger.Info("audio task succeeded",
		"elapsed", time.Since(started),
		"text_length", len(text))
	m.succeed(ctx, task, text)
}

// transcribe calls the transcriber, converting a panic into an error
func (m *Manager) transcribe(ctx context.Context, wav []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transcriber panicked: %v", r)
		}
	}()
	return m.transcriber.Transcribe(ctx, wav)
}

// handleFailure schedules another attempt or, once attempts are exhausted
// or the error is permanent, fails the task
func (m *Manager) handleFailure(ctx context.Context, task *Task, cause error) {
	message := failureMessage(cause)

	if IsPermanent(cause) {
		m.fail(ctx, task, message)
		return
	}
	if task.AttemptCount >= m.config.MaxRetryAttempts {
		m.fail(ctx, task, fmt.Sprintf("failed after %d attempts: %s", task.AttemptCount, message))
		return
	}

	delay := m.BackoffDelay(task.AttemptCount)
	next := time.Now().Add(delay)

	m.mu.Lock()
	task.Status = StatusRetryWaiting
	task.ErrorMessage = message
	task.NextRetryAt = &next
	m.retries.put(task)
	m.mu.Unlock()
	m.wakeScanner()

	m.logger.Info("audio task scheduled for retry",
		"task_id", task.ID,
		"fingerprint", task.Fingerprint,
		"attempt", task.AttemptCount,
		"delay", delay,
		"next_retry_at", next.Format(time.TimeOnly),
		"reason", message)

	event := events.NewLifecycleEvent(events.KindRetryScheduled, task.ID, task.AttemptCount)
	event.Delay = delay
	event.Message = message
	m.emit(ctx, event)

	m.persist()
}

// succeed completes the task, releases its audio and delivers the text
func (m *Manager) succeed(ctx context.Context, task *Task, text string) {
	m.mu.Lock()
	task.Status = StatusSuccess
	task.ErrorMessage = ""
	task.NextRetryAt = nil
	delete(m.ids, task.ID)
	m.mu.Unlock()

	m.releaseBlob(task)
	m.notifySuccess(task.ID, text)

	m.emit(ctx, events.NewLifecycleEvent(events.KindSucceeded, task.ID, task.AttemptCount))
	m.persist()
}

// fail marks the task FAILED, drops it from the manager, releases its audio
// and reports the reason
func (m *Manager) fail(ctx context.Context, task *Task, reason string) {
	m.mu.Lock()
	task.Status = StatusFailed
	task.ErrorMessage = reason
	task.NextRetryAt = nil
	m.retries.remove(task.ID)
	delete(m.ids, task.ID)
	m.mu.Unlock()

	m.logger.Error("audio task failed",
		"task_id", task.ID,
		"fingerprint", task.Fingerprint,
		"attempts", task.AttemptCount,
		"reason", reason)

	m.releaseBlob(task)
	m.notifyFailure(task.ID, reason)

	event := events.NewLifecycleEvent(events.KindFailed, task.ID, task.AttemptCount)
	event.Message = reason
	m.emit(ctx, event)
	m.persist()
}

func (m *Manager) clearActive(task *Task) {
	m.mu.Lock()
	if m.active == task {
		m.active = nil
	}
	m.mu.Unlock()
}

func (m *Manager) notifySuccess(id, text string) {
	if m.callbacks.OnSuccess == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("success callback panicked", "task_id", id, "panic", r)
		}
	}()
	m.callbacks.OnSuccess(id, text)
}

func (m *Manager) notifyFailure(id, reason string) {
	if m.callbacks.OnFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("failure callback panicked", "task_id", id, "panic", r)
		}
	}()
	m.callbacks.OnFailure(id, reason)
}

// failureMessage renders cause for logs, callbacks and the state file
// without leaking credentials
func failureMessage(cause error) string {
	if errors.Is(cause, ErrEmptyResult) {
		return ErrEmptyResult.Error()
	}
	return "transcription error: " + redact.Error(cause)
}
