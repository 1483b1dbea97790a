package desktop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/murmur/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorder struct {
	copied   []string
	messages []string
	copyErr  error
}

func newAdapters(r *recorder, enabled bool) (*Clipboard, *Notifier) {
	clip := NewClipboard(testLogger(), enabled)
	clip.unsupported = false
	clip.write = func(text string) error {
		if r.copyErr != nil {
			return r.copyErr
		}
		r.copied = append(r.copied, text)
		return nil
	}

	notifier := NewNotifier(testLogger(), enabled)
	notifier.notify = func(title, message string) error {
		r.messages = append(r.messages, title+": "+message)
		return nil
	}
	return clip, notifier
}

func TestClipboardCopy(t *testing.T) {
	r := &recorder{}
	clip, _ := newAdapters(r, true)

	require.NoError(t, clip.Copy("hello"))
	assert.Equal(t, []string{"hello"}, r.copied)

	r.copyErr = errors.New("no display")
	err := clip.Copy("again")
	assert.ErrorIs(t, err, r.copyErr)
}

func TestClipboardUnsupported(t *testing.T) {
	r := &recorder{}
	clip, _ := newAdapters(r, true)
	clip.unsupported = true

	assert.Error(t, clip.Copy("hello"))
	assert.Empty(t, r.copied)
}

func TestDisabledAdapters(t *testing.T) {
	r := &recorder{}
	clip, notifier := newAdapters(r, false)

	assert.NoError(t, clip.Copy("hello"))
	assert.NoError(t, notifier.Notify("message"))
	assert.Empty(t, r.copied)
	assert.Empty(t, r.messages)
}

func TestNotifierHandleEvent(t *testing.T) {
	r := &recorder{}
	_, notifier := newAdapters(r, true)
	ctx := context.Background()

	retry := events.NewLifecycleEvent(events.KindRetryScheduled, "a", 2)
	retry.Delay = time.Minute
	require.NoError(t, notifier.HandleEvent(ctx, retry))

	require.NoError(t, notifier.HandleEvent(ctx, events.NewLifecycleEvent(events.KindDropped, "b", 1)))

	// Ignored kinds
	for _, kind := range []events.Kind{events.KindSubmitted, events.KindPromoted, events.KindSucceeded, events.KindFailed} {
		require.NoError(t, notifier.HandleEvent(ctx, events.NewLifecycleEvent(kind, "c", 1)))
	}

	require.Len(t, r.messages, 2)
	assert.Equal(t, "Murmur: Transcription attempt 2 failed, retrying in 1m0s", r.messages[0])
	assert.Contains(t, r.messages[1], "b could not be recovered")
}

func TestCallbacks(t *testing.T) {
	t.Run("success copies text", func(t *testing.T) {
		r := &recorder{}
		clip, notifier := newAdapters(r, true)
		callbacks := NewCallbacks(testLogger(), clip, notifier)

		callbacks.OnSuccess("a", "transcribed")
		assert.Equal(t, []string{"transcribed"}, r.copied)
		assert.Empty(t, r.messages)
	})

	t.Run("copy failure notifies", func(t *testing.T) {
		r := &recorder{copyErr: errors.New("no display")}
		clip, notifier := newAdapters(r, true)
		callbacks := NewCallbacks(testLogger(), clip, notifier)

		callbacks.OnSuccess("a", "transcribed")
		require.Len(t, r.messages, 1)
		assert.Contains(t, r.messages[0], "copying it failed")
	})

	t.Run("failure notifies with reason", func(t *testing.T) {
		r := &recorder{}
		clip, notifier := newAdapters(r, true)
		callbacks := NewCallbacks(testLogger(), clip, notifier)

		callbacks.OnFailure("a", "failed after 8 attempts: transcription error: boom")
		require.Len(t, r.messages, 1)
		assert.Equal(t, "Murmur: Transcription failed: failed after 8 attempts: transcription error: boom", r.messages[0])
	})
}
