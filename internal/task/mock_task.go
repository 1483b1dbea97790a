package task

import (
	"context"
	"sync"
)

// TranscriptionResult is one scripted response of a MockTranscriber
type TranscriptionResult struct {
	Text string
	Err  error
}

// MockTranscriber implements the Transcriber interface for testing. It plays
// back scripted results in order and repeats the last one when exhausted.
type MockTranscriber struct {
	mutex        sync.Mutex
	results      []TranscriptionResult
	calls        int
	payloads     [][]byte
	TranscribeFn func(ctx context.Context, wav []byte) (string, error)
}

// NewMockTranscriber creates a MockTranscriber that returns results in order
func NewMockTranscriber(results ...TranscriptionResult) *MockTranscriber {
	return &MockTranscriber{results: results}
}

// Transcribe returns the next scripted result, or calls TranscribeFn if set
func (m *MockTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	m.mutex.Lock()
	m.calls++
	m.payloads = append(m.payloads, wav)
	fn := m.TranscribeFn
	var result TranscriptionResult
	if len(m.results) > 0 {
		idx := m.calls - 1
		if idx >= len(m.results) {
			idx = len(m.results) - 1
		}
		result = m.results[idx]
	}
	m.mutex.Unlock()

	if fn != nil {
		return fn(ctx, wav)
	}
	return result.Text, result.Err
}

// Calls returns how many times Transcribe was invoked
func (m *MockTranscriber) Calls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.calls
}

// Payloads returns the WAV payloads received so far
func (m *MockTranscriber) Payloads() [][]byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([][]byte(nil), m.payloads...)
}
