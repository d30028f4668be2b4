package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskRequestEvent asks the task system to create a background task. It
// carries everything task creation needs without importing the task package.
type TaskRequestEvent struct {
	// ID uniquely identifies this event.
	ID uuid.UUID `json:"id"`

	// Type names the kind of task that should be created.
	Type string `json:"type"`

	// Payload holds the task-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt records when the event was emitted.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent builds a TaskRequestEvent of the given type with the
// payload serialized to JSON.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler is implemented by components that react to emitted events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter is implemented by components that publish events to handlers.
// Services depend on this interface so they never reference handlers directly.
type EventEmitter interface {
	// EmitEvent delivers the event to every registered handler.
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
