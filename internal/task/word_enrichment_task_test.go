package task

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWordService implements the WordService interface for testing.
type mockWordService struct {
	getWordFn         func(ctx context.Context, wordID uuid.UUID) (*domain.Word, error)
	applyEnrichmentFn func(ctx context.Context, wordID, userID uuid.UUID, content *generation.WordContent) error
	applyCalled       bool
}

func (m *mockWordService) GetWord(ctx context.Context, wordID uuid.UUID) (*domain.Word, error) {
	if m.getWordFn == nil {
		return nil, errors.New("getWordFn not set")
	}
	return m.getWordFn(ctx, wordID)
}

func (m *mockWordService) ApplyEnrichment(
	ctx context.Context,
	wordID, userID uuid.UUID,
	content *generation.WordContent,
) error {
	m.applyCalled = true
	if m.applyEnrichmentFn == nil {
		return nil
	}
	return m.applyEnrichmentFn(ctx, wordID, userID, content)
}

// mockGenerator implements the Generator interface for testing.
type mockGenerator struct {
	generateFn func(ctx context.Context, word, targetLanguage, nativeLanguage string) (*generation.WordContent, error)
	called     bool
}

func (m *mockGenerator) GenerateWordContent(
	ctx context.Context,
	word, targetLanguage, nativeLanguage string,
) (*generation.WordContent, error) {
	m.called = true
	if m.generateFn == nil {
		return nil, errors.New("generateFn not set")
	}
	return m.generateFn(ctx, word, targetLanguage, nativeLanguage)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWordEnrichmentTask(t *testing.T) {
	t.Parallel()

	logger := discardLogger()
	wordID := uuid.New()
	userID := uuid.New()

	t.Run("creates task with valid parameters", func(t *testing.T) {
		task, err := NewWordEnrichmentTask(wordID, userID, &mockWordService{}, &mockGenerator{}, logger)

		require.NoError(t, err)
		assert.NotNil(t, task)
		assert.Equal(t, wordID, task.payload.WordID)
		assert.Equal(t, userID, task.payload.UserID)
		assert.Equal(t, TaskStatusPending, task.Status())
		assert.Equal(t, TaskTypeWordEnrichment, task.Type())
		assert.NotEqual(t, uuid.Nil, task.ID())
	})

	t.Run("fails with nil word service", func(t *testing.T) {
		task, err := NewWordEnrichmentTask(wordID, userID, nil, &mockGenerator{}, logger)

		assert.Equal(t, ErrNilWordService, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil generator", func(t *testing.T) {
		task, err := NewWordEnrichmentTask(wordID, userID, &mockWordService{}, nil, logger)

		assert.Equal(t, ErrNilGenerator, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil logger", func(t *testing.T) {
		task, err := NewWordEnrichmentTask(wordID, userID, &mockWordService{}, &mockGenerator{}, nil)

		assert.Equal(t, ErrNilLogger, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil word ID", func(t *testing.T) {
		task, err := NewWordEnrichmentTask(uuid.Nil, userID, &mockWordService{}, &mockGenerator{}, logger)

		assert.Equal(t, ErrNilWordID, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil user ID", func(t *testing.T) {
		task, err := NewWordEnrichmentTask(wordID, uuid.Nil, &mockWordService{}, &mockGenerator{}, logger)

		assert.Equal(t, ErrNilUserID, err)
		assert.Nil(t, task)
	})
}

func TestWordEnrichmentTaskPayload(t *testing.T) {
	t.Parallel()

	wordID := uuid.New()
	userID := uuid.New()

	task, err := NewWordEnrichmentTask(wordID, userID, &mockWordService{}, &mockGenerator{}, discardLogger())
	require.NoError(t, err)

	payload := task.Payload()
	assert.NotEmpty(t, payload)

	var data WordEnrichmentPayload
	require.NoError(t, json.Unmarshal(payload, &data))
	assert.Equal(t, wordID, data.WordID)
	assert.Equal(t, userID, data.UserID)
}

func TestWordEnrichmentTask_Execute(t *testing.T) {
	wordID := uuid.New()
	userID := uuid.New()

	unenrichedWord := func() *domain.Word {
		return &domain.Word{
			ID:           wordID,
			Text:         "dog",
			LanguagePair: "en-uk",
		}
	}

	t.Run("successfully enriches a word", func(t *testing.T) {
		content := &generation.WordContent{
			Translation:   "собака",
			Transcription: "dɒɡ",
			Examples: []generation.ExampleContent{
				{Sentence: "The dog sleeps.", Translation: "Собака спить."},
			},
		}

		var appliedContent *generation.WordContent
		wordService := &mockWordService{
			getWordFn: func(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
				assert.Equal(t, wordID, id)
				return unenrichedWord(), nil
			},
			applyEnrichmentFn: func(ctx context.Context, wID, uID uuid.UUID, c *generation.WordContent) error {
				assert.Equal(t, wordID, wID)
				assert.Equal(t, userID, uID)
				appliedContent = c
				return nil
			},
		}

		generator := &mockGenerator{
			generateFn: func(ctx context.Context, word, targetLanguage, nativeLanguage string) (*generation.WordContent, error) {
				assert.Equal(t, "dog", word)
				assert.Equal(t, "en", targetLanguage)
				assert.Equal(t, "uk", nativeLanguage)
				return content, nil
			},
		}

		task, err := NewWordEnrichmentTask(wordID, userID, wordService, generator, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, content, appliedContent)
	})

	t.Run("skips word that already has content", func(t *testing.T) {
		wordService := &mockWordService{
			getWordFn: func(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
				w := unenrichedWord()
				w.Translation = "собака"
				return w, nil
			},
		}
		generator := &mockGenerator{}

		task, err := NewWordEnrichmentTask(wordID, userID, wordService, generator, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.False(t, generator.called, "generator should not run for an enriched word")
		assert.False(t, wordService.applyCalled)
	})

	t.Run("handles word not found error", func(t *testing.T) {
		wordService := &mockWordService{
			getWordFn: func(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
				return nil, errors.New("word not found")
			},
		}

		task, err := NewWordEnrichmentTask(wordID, userID, wordService, &mockGenerator{}, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorContains(t, err, "word not found")
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("handles generation error", func(t *testing.T) {
		wordService := &mockWordService{
			getWordFn: func(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
				return unenrichedWord(), nil
			},
		}
		generator := &mockGenerator{
			generateFn: func(ctx context.Context, word, targetLanguage, nativeLanguage string) (*generation.WordContent, error) {
				return nil, generation.ErrContentBlocked
			},
		}

		task, err := NewWordEnrichmentTask(wordID, userID, wordService, generator, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.False(t, wordService.applyCalled)
	})

	t.Run("handles apply error", func(t *testing.T) {
		wordService := &mockWordService{
			getWordFn: func(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
				return unenrichedWord(), nil
			},
			applyEnrichmentFn: func(ctx context.Context, wID, uID uuid.UUID, c *generation.WordContent) error {
				return errors.New("database gone")
			},
		}
		generator := &mockGenerator{
			generateFn: func(ctx context.Context, word, targetLanguage, nativeLanguage string) (*generation.WordContent, error) {
				return &generation.WordContent{Translation: "собака"}, nil
			},
		}

		task, err := NewWordEnrichmentTask(wordID, userID, wordService, generator, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorContains(t, err, "failed to apply word enrichment")
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("fails fast on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		wordService := &mockWordService{
			getWordFn: func(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
				t.Fatal("word should not be fetched after cancellation")
				return nil, nil
			},
		}

		task, err := NewWordEnrichmentTask(wordID, userID, wordService, &mockGenerator{}, discardLogger())
		require.NoError(t, err)

		err = task.Execute(ctx)

		assert.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})
}

func TestWordEnrichmentTaskFactory(t *testing.T) {
	t.Parallel()

	logger := discardLogger()
	factory := NewWordEnrichmentTaskFactory(&mockWordService{}, &mockGenerator{}, logger)

	t.Run("creates task", func(t *testing.T) {
		wordID := uuid.New()
		userID := uuid.New()

		task, err := factory.CreateTask(wordID, userID)

		require.NoError(t, err)
		assert.Equal(t, TaskTypeWordEnrichment, task.Type())
		assert.NotEqual(t, uuid.Nil, task.ID())
	})

	t.Run("resolves persisted task keeping its ID", func(t *testing.T) {
		taskID := uuid.New()
		payload, err := json.Marshal(WordEnrichmentPayload{WordID: uuid.New(), UserID: uuid.New()})
		require.NoError(t, err)

		task, err := factory.ResolveTask(context.Background(), taskID, TaskTypeWordEnrichment, payload)

		require.NoError(t, err)
		assert.Equal(t, taskID, task.ID())
		assert.Equal(t, TaskTypeWordEnrichment, task.Type())
		assert.JSONEq(t, string(payload), string(task.Payload()))
	})

	t.Run("rejects unknown task type", func(t *testing.T) {
		_, err := factory.ResolveTask(context.Background(), uuid.New(), "unknown_type", []byte(`{}`))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported task type")
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		_, err := factory.ResolveTask(
			context.Background(), uuid.New(), TaskTypeWordEnrichment, []byte(`not json`))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal task payload")
	})

	t.Run("rejects payload without word ID", func(t *testing.T) {
		payload, err := json.Marshal(WordEnrichmentPayload{UserID: uuid.New()})
		require.NoError(t, err)

		_, err = factory.ResolveTask(context.Background(), uuid.New(), TaskTypeWordEnrichment, payload)

		assert.Equal(t, ErrNilWordID, err)
	})
}
