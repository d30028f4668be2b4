package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task and event type constants
const (
	// TaskTypeWordEnrichment names the task that fills in translation,
	// transcription and examples for a newly added word.
	TaskTypeWordEnrichment = "word_enrichment"

	// EventTypeWordsAdded names the event emitted after a user adds words
	// to their dictionary. The event handler fans it out into one
	// enrichment task per word.
	EventTypeWordsAdded = "words_added"
)

// WordEnrichmentPayload is the serialized body of a word enrichment task.
type WordEnrichmentPayload struct {
	WordID uuid.UUID `json:"word_id"`
	UserID uuid.UUID `json:"user_id"`
}

// WordsAddedPayload is the serialized body of a words-added event. It may
// name several words; each one becomes its own enrichment task.
type WordsAddedPayload struct {
	UserID  uuid.UUID   `json:"user_id"`
	WordIDs []uuid.UUID `json:"word_ids"`
}

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks retrieves all tasks with "pending" status
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks retrieves tasks with "processing" status.
	// If olderThan is non-zero, only tasks that entered the state longer
	// than that ago are returned.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)

	// WithTx returns a TaskStore bound to the given transaction so task
	// persistence can join a service-managed transaction.
	WithTx(tx *sql.Tx) TaskStore
}

// TaskResolver turns a persisted task row back into an executable Task.
// Rows loaded from the database carry only id, type and payload; the
// resolver reattaches the dependencies the task needs to run. The runner
// uses it during recovery.
type TaskResolver interface {
	ResolveTask(ctx context.Context, id uuid.UUID, taskType string, payload []byte) (Task, error)
}
