package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/murmur/internal/events"
)

const generatedIDPrefix = "audio_task_"

// Config holds configuration for the retry queue manager
type Config struct {
	// MaxRetryAttempts is the total number of processing attempts a task
	// gets before it is marked FAILED
	MaxRetryAttempts int

	// BaseDelay is the backoff before the second attempt; each further
	// attempt doubles it
	BaseDelay time.Duration

	// QueueSize bounds each dispatch queue
	QueueSize int

	// PollTimeout is how long the worker blocks on the normal queue before
	// re-checking the high-priority queue and the shutdown signal
	PollTimeout time.Duration

	// JoinTimeout bounds how long Stop waits for the loops to exit
	JoinTimeout time.Duration

	// RetainBlobs keeps audio files on terminal transitions (debugging aid)
	RetainBlobs bool
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		MaxRetryAttempts: 8,
		BaseDelay:        30 * time.Second,
		QueueSize:        100,
		PollTimeout:      time.Second,
		JoinTimeout:      2 * time.Second,
	}
}

// Summary is a point-in-time view of the manager
type Summary struct {
	Running           bool
	PendingCount      int
	HighPriorityCount int
	RetryCount        int
	ActiveTask        string
	MaxRetryAttempts  int
	BaseDelay         time.Duration
}

// SubmitOption customizes a single submission
type SubmitOption func(*submitOptions)

type submitOptions struct {
	id       string
	priority Priority
	metadata map[string]any
}

// WithID uses the given id instead of a generated one
func WithID(id string) SubmitOption {
	return func(o *submitOptions) {
		o.id = id
	}
}

// WithPriority selects the dispatch queue
func WithPriority(p Priority) SubmitOption {
	return func(o *submitOptions) {
		o.priority = p
	}
}

// WithMetadata attaches an opaque key/value bag that is persisted as-is
func WithMetadata(md map[string]any) SubmitOption {
	return func(o *submitOptions) {
		o.metadata = md
	}
}

// ManagerOption customizes a Manager at construction
type ManagerOption func(*Manager)

// WithEventEmitter publishes lifecycle events through emitter
func WithEventEmitter(emitter events.EventEmitter) ManagerOption {
	return func(m *Manager) {
		m.events = emitter
	}
}

// Manager is a crash-recoverable, priority-aware retry queue for audio
// transcription. A single worker goroutine processes one task at a time;
// a scanner goroutine promotes tasks whose backoff has elapsed.
type Manager struct {
	config      Config
	transcriber Transcriber
	callbacks   Callbacks
	blobs       BlobStore
	state       StateStore
	events      events.EventEmitter
	logger      *slog.Logger

	normal *TaskQueue
	high   *TaskQueue

	// mu guards the retry table, the active task pointer, the live id set
	// and the run state
	mu      sync.Mutex
	retries *retryTable
	active  *Task
	ids     map[string]struct{}
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// drained is closed once the loops of the last stopped run have exited
	drained chan struct{}

	// wake nudges the scanner when an earlier retry is scheduled
	wake chan struct{}

	// persistMu serializes snapshots so older state never overwrites newer
	persistMu sync.Mutex
}

// NewManager creates a Manager. The transcriber and callbacks are fixed for
// the lifetime of the manager so that no submission can run before they exist.
func NewManager(
	config Config,
	transcriber Transcriber,
	callbacks Callbacks,
	blobs BlobStore,
	state StateStore,
	logger *slog.Logger,
	opts ...ManagerOption,
) (*Manager, error) {
	if transcriber == nil {
		return nil, errors.New("transcriber cannot be nil")
	}
	if blobs == nil {
		return nil, errors.New("blob store cannot be nil")
	}
	if state == nil {
		return nil, errors.New("state store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	defaults := DefaultConfig()
	if config.MaxRetryAttempts <= 0 {
		logger.Warn("invalid max retry attempts specified, using default",
			"specified", config.MaxRetryAttempts,
			"default", defaults.MaxRetryAttempts)
		config.MaxRetryAttempts = defaults.MaxRetryAttempts
	}
	if config.BaseDelay <= 0 {
		logger.Warn("invalid base delay specified, using default",
			"specified", config.BaseDelay,
			"default", defaults.BaseDelay)
		config.BaseDelay = defaults.BaseDelay
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = defaults.PollTimeout
	}
	if config.JoinTimeout <= 0 {
		config.JoinTimeout = defaults.JoinTimeout
	}

	logger = logger.With("component", "retry_manager")
	m := &Manager{
		config:      config,
		transcriber: transcriber,
		callbacks:   callbacks,
		blobs:       blobs,
		state:       state,
		logger:      logger,
		normal:      NewTaskQueue("normal", config.QueueSize, logger),
		high:        NewTaskQueue("high", config.QueueSize, logger),
		retries:     newRetryTable(),
		ids:         make(map[string]struct{}),
		wake:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	logger.Info("retry manager initialized",
		"max_retry_attempts", config.MaxRetryAttempts,
		"base_delay", config.BaseDelay,
		"retry_delays", m.RetryDelays())

	return m, nil
}

// BackoffDelay returns the wait scheduled after the given failed attempt:
// BaseDelay * 2^(attempt-1)
func (m *Manager) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(m.config.BaseDelay) * math.Pow(2, float64(attempt-1))
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// RetryDelays returns the full backoff schedule, one entry per attempt
func (m *Manager) RetryDelays() []time.Duration {
	delays := make([]time.Duration, m.config.MaxRetryAttempts)
	for i := range delays {
		delays[i] = m.BackoffDelay(i + 1)
	}
	return delays
}

// Submit stores the audio and queues a new task for it. A high-priority
// submission is dispatched ahead of normal work but never displaces tasks
// that are already queued or waiting to retry.
func (m *Manager) Submit(ctx context.Context, audio Audio, opts ...SubmitOption) (string, error) {
	if err := audio.Validate(); err != nil {
		return "", err
	}

	o := submitOptions{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&o)
	}

	id, err := m.reserveID(o.id)
	if err != nil {
		return "", err
	}

	path, err := m.blobs.Put(id, audio)
	if err != nil {
		m.releaseID(id)
		return "", fmt.Errorf("failed to store audio: %w", err)
	}

	task := &Task{
		ID:          id,
		BlobPath:    path,
		Fingerprint: Fingerprint(audio),
		CreatedAt:   time.Now(),
		Priority:    o.priority,
		Status:      StatusPending,
		Metadata:    copyMetadata(o.metadata),
	}

	queue := m.normal
	if o.priority == PriorityHigh {
		queue = m.high
	}
	if err := queue.Enqueue(task); err != nil {
		if delErr := m.blobs.Delete(path); delErr != nil {
			m.logger.Warn("failed to delete audio of rejected task",
				"task_id", id,
				"error", delErr)
		}
		m.releaseID(id)
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	m.logger.Info("audio task submitted",
		"task_id", id,
		"fingerprint", task.Fingerprint,
		"priority", o.priority.String(),
		"duration", audio.Duration())
	m.emit(ctx, events.NewLifecycleEvent(events.KindSubmitted, id, 0))

	m.persist()
	return id, nil
}

// Start recovers persisted state and launches the worker and retry scanner.
// It returns ErrStillStopping while a worker from a timed-out Stop is still
// finishing its attempt.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if m.drained != nil {
		select {
		case <-m.drained:
		default:
			m.mu.Unlock()
			return ErrStillStopping
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel
	m.high.Open()
	m.normal.Open()
	m.mu.Unlock()

	m.recover(ctx)

	m.wg.Add(2)
	go m.worker(ctx)
	go m.scanner(ctx)

	m.logger.Info("retry manager started")
	return nil
}

// Stop closes both queues to new submissions, signals both loops to exit,
// waits for them up to JoinTimeout and persists the final state. An in-flight transcription sees its context
// cancelled but is not otherwise interrupted.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	done := make(chan struct{})
	m.drained = done
	m.high.Close()
	m.normal.Close()
	m.mu.Unlock()

	m.logger.Info("stopping retry manager")
	cancel()

	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(m.config.JoinTimeout):
		m.logger.Warn("timed out waiting for retry manager loops to exit",
			"join_timeout", m.config.JoinTimeout)
	}

	m.persist()
	m.logger.Info("retry manager stopped")
}

// Status returns counts, the active task and the retry configuration
func (m *Manager) Status() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		Running:           m.running,
		PendingCount:      m.normal.Len(),
		HighPriorityCount: m.high.Len(),
		RetryCount:        m.retries.len(),
		MaxRetryAttempts:  m.config.MaxRetryAttempts,
		BaseDelay:         m.config.BaseDelay,
	}
	if m.active != nil {
		s.ActiveTask = m.active.ID
	}
	return s
}

// RetryTasks lists the tasks in the retry table, soonest retry first
func (m *Manager) RetryTasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retries.snapshot()
}

// Cancel moves a queued or retry-waiting task to CANCELLED, drops it from
// the manager and deletes its audio. No callback is invoked. The task being
// processed and an unknown id yield ErrNotFound.
func (m *Manager) Cancel(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	task, ok := m.retries.remove(id)
	if !ok {
		task, ok = m.high.Remove(id)
	}
	if !ok {
		task, ok = m.normal.Remove(id)
	}
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	task.Status = StatusCancelled
	task.NextRetryAt = nil
	task.ErrorMessage = reason
	delete(m.ids, id)
	m.mu.Unlock()

	m.releaseBlob(task)

	m.logger.Info("task cancelled",
		"task_id", id,
		"fingerprint", task.Fingerprint,
		"reason", reason)
	event := events.NewLifecycleEvent(events.KindCancelled, id, task.AttemptCount)
	event.Message = reason
	m.emit(ctx, event)

	m.persist()
	return nil
}

// ClearFailedTasks removes FAILED or CANCELLED entries left in the retry
// table, releasing their ids, and deletes any audio still on disk. Terminal
// transitions already evict their tasks, so this normally finds nothing.
// It returns the number of entries removed.
func (m *Manager) ClearFailedTasks() int {
	m.mu.Lock()
	removed := m.retries.removeWhere(func(t *Task) bool {
		return t.Status == StatusFailed || t.Status == StatusCancelled
	})
	for _, t := range removed {
		delete(m.ids, t.ID)
	}
	m.mu.Unlock()

	for _, t := range removed {
		if !m.blobs.Exists(t.BlobPath) {
			continue
		}
		if err := m.blobs.Delete(t.BlobPath); err != nil {
			m.logger.Warn("failed to delete retained audio blob",
				"task_id", t.ID,
				"error", err)
		}
	}

	if len(removed) > 0 {
		m.logger.Info("cleared failed and cancelled tasks", "count", len(removed))
	}
	m.persist()
	return len(removed)
}

// reserveID claims id, or a generated id when empty, in the live id set
func (m *Manager) reserveID(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if _, taken := m.ids[id]; taken {
			return "", fmt.Errorf("%w: %s", ErrDuplicateTask, id)
		}
		m.ids[id] = struct{}{}
		return id, nil
	}

	id = fmt.Sprintf("%s%d", generatedIDPrefix, time.Now().UnixMilli())
	if _, taken := m.ids[id]; taken {
		id = id + "_" + uuid.NewString()[:8]
	}
	m.ids[id] = struct{}{}
	return id, nil
}

func (m *Manager) releaseID(id string) {
	m.mu.Lock()
	delete(m.ids, id)
	m.mu.Unlock()
}

// releaseBlob deletes a task's audio unless blobs are retained for debugging
func (m *Manager) releaseBlob(task *Task) {
	if m.config.RetainBlobs {
		m.logger.Debug("retaining audio blob", "task_id", task.ID, "path", task.BlobPath)
		return
	}
	if err := m.blobs.Delete(task.BlobPath); err != nil {
		m.logger.Warn("failed to delete audio blob",
			"task_id", task.ID,
			"error", err)
	}
}

// persist snapshots the retry table. Failures are logged and otherwise
// ignored; the next successful write brings the file up to date.
func (m *Manager) persist() {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	snapshot := m.retries.snapshot()
	m.mu.Unlock()

	if err := m.state.Save(snapshot); err != nil {
		m.logger.Error("failed to persist retry state", "error", err)
	}
}

func (m *Manager) emit(ctx context.Context, event *events.LifecycleEvent) {
	if m.events == nil {
		return
	}
	if err := m.events.EmitEvent(ctx, event); err != nil {
		m.logger.Debug("lifecycle event handler failed",
			"event_kind", event.Kind,
			"task_id", event.TaskID,
			"error", err)
	}
}

func copyMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
