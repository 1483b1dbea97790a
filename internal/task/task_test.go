package task

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		status   Status
		name     string
		label    string
		terminal bool
	}{
		{StatusPending, "PENDING", "待处理", false},
		{StatusProcessing, "PROCESSING", "处理中", false},
		{StatusRetryWaiting, "RETRY_WAITING", "等待重试", false},
		{StatusSuccess, "SUCCESS", "成功", true},
		{StatusFailed, "FAILED", "失败", true},
		{StatusCancelled, "CANCELLED", "已取消", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.status.String())
			assert.Equal(t, tc.label, tc.status.Label())
			assert.Equal(t, tc.terminal, tc.status.IsTerminal())

			assert.Equal(t, tc.status, ParseStatus(tc.label))
			assert.Equal(t, tc.status, ParseStatus(tc.name))
		})
	}

	assert.Equal(t, StatusPending, ParseStatus(""))
	assert.Equal(t, StatusPending, ParseStatus("archived"))
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)

	p, err = ParsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)
	assert.Equal(t, "high", p.String())

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestPermanent(t *testing.T) {
	cause := errors.New("request blocked")
	err := Permanent(cause)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "request blocked", err.Error())

	wrapped := fmt.Errorf("gemini: %w", err)
	assert.True(t, IsPermanent(wrapped))

	assert.False(t, IsPermanent(cause))
	assert.Nil(t, Permanent(nil))
}

func TestTaskClone(t *testing.T) {
	next := mustTime(t, "2026-01-02T03:04:05Z")
	original := &Task{ID: "a", NextRetryAt: &next}

	c := original.clone()
	*c.NextRetryAt = next.Add(1)

	assert.True(t, original.NextRetryAt.Equal(next))
}

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return ts
}
