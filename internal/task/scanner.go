package task

import (
	"context"
	"time"

	"github.com/phrazzld/murmur/internal/events"
)

// idleScanInterval is how long the scanner sleeps when nothing is scheduled.
// Any newly scheduled retry wakes it earlier.
const idleScanInterval = time.Minute

// scanner sleeps until the earliest retry is due, then moves every due task
// back onto the normal queue
func (m *Manager) scanner(ctx context.Context) {
	defer m.wg.Done()

	m.logger.Debug("starting retry scanner")

	timer := time.NewTimer(m.untilNextRetry())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("stopping retry scanner")
			return
		case <-m.wake:
		case <-timer.C:
		}

		if promoted := m.promoteDue(ctx, time.Now()); promoted > 0 {
			m.persist()
		}
		timer.Reset(m.untilNextRetry())
	}
}

// promoteDue moves every retry entry due at or before now onto the normal
// queue and returns the number moved. When the normal queue is full the
// entry stays in the table and is tried again after PollTimeout.
func (m *Manager) promoteDue(ctx context.Context, now time.Time) int {
	var promoted []*Task

	m.mu.Lock()
	for _, task := range m.retries.popDue(now) {
		task.Status = StatusPending
		task.NextRetryAt = nil
		if err := m.normal.Enqueue(task); err != nil {
			next := now.Add(m.config.PollTimeout)
			task.Status = StatusRetryWaiting
			task.NextRetryAt = &next
			m.retries.put(task)
			m.logger.Warn("deferring retry promotion",
				"task_id", task.ID,
				"error", err)
			continue
		}
		promoted = append(promoted, task)
	}
	m.mu.Unlock()

	for _, task := range promoted {
		m.logger.Info("retrying audio task",
			"task_id", task.ID,
			"fingerprint", task.Fingerprint,
			"next_attempt", task.AttemptCount+1)
		m.emit(ctx, events.NewLifecycleEvent(events.KindPromoted, task.ID, task.AttemptCount))
	}
	return len(promoted)
}

// untilNextRetry returns how long to sleep before the earliest retry is due
func (m *Manager) untilNextRetry() time.Duration {
	m.mu.Lock()
	next, ok := m.retries.nextDue()
	m.mu.Unlock()

	if !ok {
		return idleScanInterval
	}
	if d := time.Until(next); d > 0 {
		return d
	}
	return 0
}

// wakeScanner makes the scanner recompute its deadline
func (m *Manager) wakeScanner() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
