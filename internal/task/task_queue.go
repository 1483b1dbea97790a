package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskQueue is a bounded FIFO of tasks ready to run. It supports a
// non-blocking take, a blocking take with timeout, and removal by id so that
// a single queued task can be cancelled without disturbing the others.
type TaskQueue struct {
	name     string
	capacity int
	logger   *slog.Logger

	mu     sync.Mutex
	tasks  []*Task
	closed bool

	// notify holds at most one pending wake-up for a blocked consumer
	notify chan struct{}
}

// NewTaskQueue creates a new task queue with the specified capacity
func NewTaskQueue(name string, capacity int, logger *slog.Logger) *TaskQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &TaskQueue{
		name:     name,
		capacity: capacity,
		logger:   logger,
		tasks:    make([]*Task, 0, capacity),
		notify:   make(chan struct{}, 1),
	}
}

// Enqueue appends a task to the tail of the queue
// Returns an error if the queue is full or closed
func (q *TaskQueue) Enqueue(task *Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if len(q.tasks) >= q.capacity {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s queue capacity %d reached", ErrQueueFull, q.name, q.capacity)
	}
	q.tasks = append(q.tasks, task)
	queueLen := len(q.tasks)
	q.mu.Unlock()

	q.signal()
	q.logger.Debug("task enqueued",
		"queue", q.name,
		"task_id", task.ID,
		"queue_len", queueLen,
		"queue_cap", q.capacity)
	return nil
}

// requeueFront puts a task back at the head of the queue, ignoring capacity.
// Used when the consumer took a task it is no longer allowed to run.
func (q *TaskQueue) requeueFront(task *Task) {
	q.mu.Lock()
	q.tasks = append([]*Task{task}, q.tasks...)
	q.mu.Unlock()
	q.signal()
}

// TryDequeue removes and returns the head of the queue without blocking
func (q *TaskQueue) TryDequeue() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task, true
}

// Dequeue waits up to timeout for a task. It returns false when the timeout
// expires or ctx is cancelled before a task becomes available.
func (q *TaskQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if task, ok := q.TryDequeue(); ok {
			return task, true
		}

		select {
		case <-q.notify:
		case <-timer.C:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Remove takes the task with the given id out of the queue, keeping the
// order of the remaining tasks
func (q *TaskQueue) Remove(id string) (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, task := range q.tasks {
		if task.ID == id {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return task, true
		}
	}
	return nil, false
}

// Len returns the number of queued tasks
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close prevents further submissions. Queued tasks can still be taken.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		q.logger.Info("task queue closed", "queue", q.name)
	}
}

// Open accepts submissions again after Close
func (q *TaskQueue) Open() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.closed = false
		q.logger.Info("task queue opened", "queue", q.name)
	}
}

func (q *TaskQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
