package task

import (
	"sync"
)

// MockStateStore implements the StateStore interface for testing. It keeps
// the last snapshot in memory and counts writes.
type MockStateStore struct {
	mutex  sync.Mutex
	tasks  []Task
	saves  int
	SaveFn func(tasks []Task) error
	LoadFn func() ([]*Task, error)
}

// NewMockStateStore creates a new MockStateStore with default implementations
func NewMockStateStore() *MockStateStore {
	store := &MockStateStore{}

	// Default behavior for Save
	store.SaveFn = func(tasks []Task) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		store.tasks = append([]Task(nil), tasks...)
		store.saves++
		return nil
	}

	// Default behavior for Load returns copies of the last snapshot
	store.LoadFn = func() ([]*Task, error) {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		out := make([]*Task, 0, len(store.tasks))
		for i := range store.tasks {
			c := store.tasks[i].clone()
			out = append(out, &c)
		}
		return out, nil
	}

	return store
}

// Save records the snapshot
func (s *MockStateStore) Save(tasks []Task) error {
	return s.SaveFn(tasks)
}

// Load returns the recorded snapshot
func (s *MockStateStore) Load() ([]*Task, error) {
	return s.LoadFn()
}

// Seed replaces the stored snapshot, simulating state left by a previous run
func (s *MockStateStore) Seed(tasks ...Task) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tasks = append([]Task(nil), tasks...)
}

// Snapshot returns the last saved tasks keyed by id
func (s *MockStateStore) Snapshot() map[string]Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make(map[string]Task, len(s.tasks))
	for _, t := range s.tasks {
		out[t.ID] = t
	}
	return out
}

// SaveCount returns how many times Save succeeded
func (s *MockStateStore) SaveCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.saves
}
