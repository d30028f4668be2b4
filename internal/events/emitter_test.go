package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewTaskRequestEvent("word_enrichment", map[string]string{"word_id": "w1"})
		require.NoError(t, err)

		// Emitting into the void is not an error.
		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)
	})

	t.Run("emit event reaches every handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handler1 := &mockEventHandler{}
		handler2 := &mockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewTaskRequestEvent("word_enrichment", map[string]string{"word_id": "w1"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)

		assert.Equal(t, 1, handler1.handledCount)
		assert.Equal(t, 1, handler2.handledCount)
		assert.Equal(t, event, handler1.lastEvent)
		assert.Equal(t, event, handler2.lastEvent)
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		failing := &mockEventHandler{handlerError: errors.New("handler error")}
		succeeding := &mockEventHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(succeeding)

		event, err := NewTaskRequestEvent("word_enrichment", map[string]string{"word_id": "w1"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Equal(t, "handler error", err.Error())

		assert.Equal(t, 1, failing.handledCount)
		assert.Equal(t, 1, succeeding.handledCount)
	})
}
