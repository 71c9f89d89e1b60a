package events

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// recordingHandler captures events it receives and optionally fails.
type recordingHandler struct {
	received []*BatchEvent
	err      error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *BatchEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func TestEmitEventDispatchesToAllHandlers(t *testing.T) {
	emitter := NewInMemoryEmitter(setupTestLogger())

	h1 := &recordingHandler{}
	h2 := &recordingHandler{}
	emitter.RegisterHandler(h1)
	emitter.RegisterHandler(h2)

	ev, err := NewBatchEvent(uuid.New(), TypeBatchProgress, map[string]int{"completed": 1})
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), ev))
	assert.Len(t, h1.received, 1)
	assert.Len(t, h2.received, 1)
	assert.Equal(t, ev.ID, h1.received[0].ID)
}

func TestEmitEventNoHandlers(t *testing.T) {
	emitter := NewInMemoryEmitter(setupTestLogger())

	ev, err := NewBatchEvent(uuid.New(), TypeBatchDone, nil)
	require.NoError(t, err)

	assert.NoError(t, emitter.EmitEvent(context.Background(), ev))
}

func TestEmitEventContinuesPastFailingHandler(t *testing.T) {
	emitter := NewInMemoryEmitter(setupTestLogger())

	failing := &recordingHandler{err: errors.New("handler down")}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	ev, err := NewBatchEvent(uuid.New(), TypeDayCompleted, nil)
	require.NoError(t, err)

	emitErr := emitter.EmitEvent(context.Background(), ev)
	assert.ErrorIs(t, emitErr, failing.err)
	// The healthy handler still received the event.
	assert.Len(t, healthy.received, 1)
}

func TestHandlerFunc(t *testing.T) {
	called := false
	h := HandlerFunc(func(_ context.Context, _ *BatchEvent) error {
		called = true
		return nil
	})

	ev, err := NewBatchEvent(uuid.New(), TypeBatchFailed, nil)
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), ev))
	assert.True(t, called)
}

func TestUnmarshalPayload(t *testing.T) {
	type payload struct {
		Completed int `json:"completed"`
	}

	ev, err := NewBatchEvent(uuid.New(), TypeBatchProgress, payload{Completed: 4})
	require.NoError(t, err)

	var got payload
	require.NoError(t, ev.UnmarshalPayload(&got))
	assert.Equal(t, 4, got.Completed)
}
