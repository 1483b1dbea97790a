package task

import (
	"context"

	"github.com/phrazzld/murmur/internal/events"
)

// recover reloads the persisted retry table. Entries whose audio is gone and
// entries that already reached a terminal status are dropped. A waiting retry keeps its original schedule; anything that was
// pending or mid-flight goes back on the normal queue.
func (m *Manager) recover(ctx context.Context) {
	saved, err := m.state.Load()
	if err != nil {
		m.logger.Error("failed to load retry state, starting empty", "error", err)
		return
	}
	if len(saved) == 0 {
		return
	}

	var scheduled, requeued, dropped int
	for _, task := range saved {
		if !m.blobs.Exists(task.BlobPath) {
			dropped++
			m.logger.Warn("dropping recovered task, audio is missing",
				"task_id", task.ID,
				"path", task.BlobPath)
			event := events.NewLifecycleEvent(events.KindDropped, task.ID, task.AttemptCount)
			event.Message = ErrMissingAudio.Error()
			m.emit(ctx, event)
			continue
		}

		switch m.restore(task) {
		case restoredScheduled:
			scheduled++
		case restoredQueued:
			requeued++
		case restoredSkipped:
			dropped++
		}
	}

	m.logger.Info("recovered retry state",
		"scheduled_count", scheduled,
		"requeued_count", requeued,
		"dropped_count", dropped)

	m.persist()
}

type restoreOutcome int

const (
	restoredSkipped restoreOutcome = iota
	restoredScheduled
	restoredQueued
)

func (m *Manager) restore(task *Task) restoreOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, live := m.ids[task.ID]; live {
		m.logger.Warn("skipping recovered task, id already in use", "task_id", task.ID)
		return restoredSkipped
	}

	if task.Status.IsTerminal() {
		m.logger.Debug("skipping recovered task that already finished",
			"task_id", task.ID,
			"status", task.Status)
		return restoredSkipped
	}

	if task.AttemptCount >= m.config.MaxRetryAttempts {
		m.logger.Warn("recovered task exceeds the attempt limit, allowing one final attempt",
			"task_id", task.ID,
			"attempt_count", task.AttemptCount,
			"max_attempts", m.config.MaxRetryAttempts)
		task.AttemptCount = m.config.MaxRetryAttempts - 1
	}

	if task.Status == StatusRetryWaiting && task.NextRetryAt != nil {
		m.ids[task.ID] = struct{}{}
		m.retries.put(task)
		return restoredScheduled
	}

	task.Status = StatusPending
	task.NextRetryAt = nil
	if err := m.normal.Enqueue(task); err != nil {
		m.logger.Error("failed to requeue recovered task",
			"task_id", task.ID,
			"error", err)
		return restoredSkipped
	}
	m.ids[task.ID] = struct{}{}
	return restoredQueued
}
