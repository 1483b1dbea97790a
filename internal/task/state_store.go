package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateStore persists the retry table so that waiting tasks survive a crash.
// Queue contents are transient and never persisted.
type StateStore interface {
	// Save replaces the stored snapshot with tasks
	Save(tasks []Task) error

	// Load returns the tasks of the last snapshot. A missing snapshot is
	// not an error and yields no tasks.
	Load() ([]*Task, error)
}

// stateFile is the on-disk layout of the retry snapshot
type stateFile struct {
	Timestamp  float64                   `json:"timestamp"`
	RetryTasks map[string]persistedTask `json:"retry_tasks"`
}

type persistedTask struct {
	TaskID          string         `json:"task_id"`
	AudioPath       string         `json:"audio_path"`
	CreatedTime     float64        `json:"created_time"`
	Fingerprint     string         `json:"fingerprint"`
	AttemptCount    int            `json:"attempt_count"`
	LastAttemptTime *float64       `json:"last_attempt_time"`
	NextRetryTime   *float64       `json:"next_retry_time"`
	Status          string         `json:"status"`
	ErrorMessage    *string        `json:"error_message"`
	Metadata        map[string]any `json:"metadata"`
}

// FileStateStore writes the snapshot as indented JSON, replacing the file
// atomically so a crash mid-write never leaves a truncated snapshot behind
type FileStateStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStateStore returns a store backed by the JSON file at path
func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

// Path returns the location of the state file
func (s *FileStateStore) Path() string {
	return s.path
}

// Save writes tasks to the state file
func (s *FileStateStore) Save(tasks []Task) error {
	state := stateFile{
		Timestamp:  toEpochSeconds(time.Now()),
		RetryTasks: make(map[string]persistedTask, len(tasks)),
	}
	for i := range tasks {
		state.RetryTasks[tasks[i].ID] = toPersisted(&tasks[i])
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode retry state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write retry state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write retry state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace retry state: %w", err)
	}
	return nil
}

// Load reads the tasks of the last snapshot
func (s *FileStateStore) Load() ([]*Task, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read retry state: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode retry state: %w", err)
	}

	tasks := make([]*Task, 0, len(state.RetryTasks))
	for key, p := range state.RetryTasks {
		if p.TaskID == "" {
			p.TaskID = key
		}
		tasks = append(tasks, fromPersisted(p))
	}
	return tasks, nil
}

func toPersisted(t *Task) persistedTask {
	p := persistedTask{
		TaskID:       t.ID,
		AudioPath:    t.BlobPath,
		CreatedTime:  toEpochSeconds(t.CreatedAt),
		Fingerprint:  t.Fingerprint,
		AttemptCount: t.AttemptCount,
		Status:       t.Status.Label(),
		Metadata:     t.Metadata,
	}
	if t.LastAttemptAt != nil {
		v := toEpochSeconds(*t.LastAttemptAt)
		p.LastAttemptTime = &v
	}
	if t.NextRetryAt != nil {
		v := toEpochSeconds(*t.NextRetryAt)
		p.NextRetryTime = &v
	}
	if t.ErrorMessage != "" {
		msg := t.ErrorMessage
		p.ErrorMessage = &msg
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	return p
}

func fromPersisted(p persistedTask) *Task {
	t := &Task{
		ID:           p.TaskID,
		BlobPath:     p.AudioPath,
		CreatedAt:    fromEpochSeconds(p.CreatedTime),
		Fingerprint:  p.Fingerprint,
		AttemptCount: p.AttemptCount,
		Status:       ParseStatus(p.Status),
		Metadata:     p.Metadata,
	}
	if p.LastAttemptTime != nil {
		v := fromEpochSeconds(*p.LastAttemptTime)
		t.LastAttemptAt = &v
	}
	if p.NextRetryTime != nil {
		v := fromEpochSeconds(*p.NextRetryTime)
		t.NextRetryAt = &v
	}
	if p.ErrorMessage != nil {
		t.ErrorMessage = *p.ErrorMessage
	}
	if t.AttemptCount < 0 {
		t.AttemptCount = 0
	}
	return t
}

func toEpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpochSeconds(v float64) time.Time {
	secs, frac := math.Modf(v)
	return time.Unix(int64(secs), int64(frac*float64(time.Second)))
}
