package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/events"
)

// taskCreator matches WordEnrichmentTaskFactory.CreateTask.
type taskCreator interface {
	CreateTask(wordID, userID uuid.UUID) (Task, error)
}

// taskSubmitter matches TaskRunner.Submit.
type taskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface.
// It turns task request events emitted by services into persisted, queued
// tasks via the factory and runner.
type TaskFactoryEventHandler struct {
	factory taskCreator
	runner  taskSubmitter
	logger  *slog.Logger
}

// NewTaskFactoryEventHandler creates an event handler that uses the given
// factory to create tasks and submits them to the provided runner.
func NewTaskFactoryEventHandler(
	factory taskCreator,
	runner taskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent processes a words-added event by creating and submitting one
// enrichment task per word. Events of other types are ignored. A failure on
// one word does not stop the remaining words; the first error is returned
// after all words have been attempted.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != EventTypeWordsAdded {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload WordsAddedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal event payload",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("failed to unmarshal event payload: %w", err)
	}

	if len(payload.WordIDs) == 0 {
		h.logger.Error("event payload has no word IDs", "event_id", event.ID)
		return fmt.Errorf("event payload has no word IDs")
	}

	var firstErr error
	submitted := 0
	for _, wordID := range payload.WordIDs {
		if wordID == uuid.Nil {
			h.logger.Error("event payload contains a nil word ID", "event_id", event.ID)
			if firstErr == nil {
				firstErr = fmt.Errorf("event payload contains a nil word ID")
			}
			continue
		}

		t, err := h.factory.CreateTask(wordID, payload.UserID)
		if err != nil {
			h.logger.Error("failed to create task",
				"error", err,
				"word_id", wordID,
				"event_id", event.ID)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to create task: %w", err)
			}
			continue
		}

		if err := h.runner.Submit(ctx, t); err != nil {
			h.logger.Error("failed to submit task",
				"error", err,
				"task_id", t.ID(),
				"word_id", wordID,
				"event_id", event.ID)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to submit task: %w", err)
			}
			continue
		}

		submitted++
	}

	h.logger.Info("enrichment tasks submitted for added words",
		"submitted", submitted,
		"word_count", len(payload.WordIDs),
		"event_id", event.ID)
	return firstErr
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
