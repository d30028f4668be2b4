package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/generation"
	"github.com/maximus-ms/enbot/internal/platform/metrics"
)

// Common errors
var (
	ErrNilWordService = errors.New("word service cannot be nil")
	ErrNilGenerator   = errors.New("generator cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrNilWordID      = errors.New("word ID cannot be nil")
	ErrNilUserID      = errors.New("user ID cannot be nil")
)

// WordService defines the word operations the enrichment task needs.
// The vocabulary service implements it; declaring it here keeps the task
// package from depending on the service package.
type WordService interface {
	// GetWord retrieves a dictionary word by its ID.
	GetWord(ctx context.Context, wordID uuid.UUID) (*domain.Word, error)

	// ApplyEnrichment stores generated content on the word and creates its
	// example sentences. User-entered fields are never overwritten.
	ApplyEnrichment(ctx context.Context, wordID, userID uuid.UUID, content *generation.WordContent) error
}

// Generator defines the content generation operation the task needs.
// generation.Generator satisfies it.
type Generator interface {
	GenerateWordContent(ctx context.Context, word, targetLanguage, nativeLanguage string) (*generation.WordContent, error)
}

// WordEnrichmentTask implements the Task interface for filling in a word's
// translation, transcription and example sentences.
type WordEnrichmentTask struct {
	id          uuid.UUID
	payload     WordEnrichmentPayload
	wordService WordService
	generator   Generator
	logger      *slog.Logger
	status      TaskStatus
}

// NewWordEnrichmentTask creates a new word enrichment task.
func NewWordEnrichmentTask(
	wordID, userID uuid.UUID,
	wordService WordService,
	generator Generator,
	logger *slog.Logger,
) (*WordEnrichmentTask, error) {
	if wordService == nil {
		return nil, ErrNilWordService
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if wordID == uuid.Nil {
		return nil, ErrNilWordID
	}
	if userID == uuid.Nil {
		return nil, ErrNilUserID
	}

	return &WordEnrichmentTask{
		id:          uuid.New(),
		payload:     WordEnrichmentPayload{WordID: wordID, UserID: userID},
		wordService: wordService,
		generator:   generator,
		logger:      logger.With("task_type", TaskTypeWordEnrichment, "word_id", wordID),
		status:      TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *WordEnrichmentTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *WordEnrichmentTask) Type() string {
	return TaskTypeWordEnrichment
}

// Payload returns the task data as a byte slice
func (t *WordEnrichmentTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *WordEnrichmentTask) Status() TaskStatus {
	return t.status
}

// Execute runs the enrichment: it fetches the word, generates content for it
// and applies the result. A word that already has content is left untouched
// so re-submitted or recovered tasks stay idempotent.
func (t *WordEnrichmentTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting word enrichment task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	word, err := t.wordService.GetWord(ctx, t.payload.WordID)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to retrieve word", "error", err)
		return fmt.Errorf("failed to retrieve word: %w", err)
	}

	if word.Enriched() {
		t.status = TaskStatusCompleted
		t.logger.Info("word already has content, skipping generation")
		return nil
	}

	targetLanguage, nativeLanguage := domain.SplitLanguagePair(word.LanguagePair)
	t.logger.Info("generating word content",
		"word_text", word.Text,
		"language_pair", word.LanguagePair)

	content, err := t.generator.GenerateWordContent(ctx, word.Text, targetLanguage, nativeLanguage)
	if err != nil {
		metrics.RecordEnrichment(false)
		t.status = TaskStatusFailed
		t.logger.Error("failed to generate word content", "error", err)
		return fmt.Errorf("failed to generate word content: %w", err)
	}

	if err := t.wordService.ApplyEnrichment(ctx, t.payload.WordID, t.payload.UserID, content); err != nil {
		metrics.RecordEnrichment(false)
		t.status = TaskStatusFailed
		t.logger.Error("failed to apply word enrichment", "error", err)
		return fmt.Errorf("failed to apply word enrichment: %w", err)
	}

	metrics.RecordEnrichment(true)
	t.status = TaskStatusCompleted
	t.logger.Info("word enrichment task completed", "example_count", len(content.Examples))
	return nil
}

var _ Task = (*WordEnrichmentTask)(nil)
