package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// WordEnrichmentTaskFactory creates WordEnrichmentTask instances. It also
// acts as the TaskResolver that rebuilds executable tasks from persisted
// rows during recovery.
type WordEnrichmentTaskFactory struct {
	wordService WordService
	generator   Generator
	logger      *slog.Logger
}

// NewWordEnrichmentTaskFactory creates a new factory for WordEnrichmentTasks
func NewWordEnrichmentTaskFactory(
	wordService WordService,
	generator Generator,
	logger *slog.Logger,
) *WordEnrichmentTaskFactory {
	return &WordEnrichmentTaskFactory{
		wordService: wordService,
		generator:   generator,
		logger:      logger.With("component", "word_enrichment_task_factory"),
	}
}

// CreateTask creates a new WordEnrichmentTask for the specified word.
func (f *WordEnrichmentTaskFactory) CreateTask(wordID, userID uuid.UUID) (Task, error) {
	task, err := NewWordEnrichmentTask(
		wordID,
		userID,
		f.wordService,
		f.generator,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ResolveTask rebuilds an executable task from a persisted row. The returned
// task keeps the persisted ID so status updates address the original row.
func (f *WordEnrichmentTaskFactory) ResolveTask(
	ctx context.Context,
	id uuid.UUID,
	taskType string,
	payload []byte,
) (Task, error) {
	if taskType != TaskTypeWordEnrichment {
		return nil, fmt.Errorf("unsupported task type %q", taskType)
	}

	var p WordEnrichmentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	task, err := NewWordEnrichmentTask(
		p.WordID,
		p.UserID,
		f.wordService,
		f.generator,
		f.logger,
	)
	if err != nil {
		return nil, err
	}

	// Keep the persisted identity instead of the freshly generated one.
	task.id = id
	return task, nil
}

var _ TaskResolver = (*WordEnrichmentTaskFactory)(nil)
