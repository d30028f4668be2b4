package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/generation"
	"github.com/maximus-ms/enbot/internal/service"
)

// mockVocabularyService is a mock implementation of service.VocabularyService.
type mockVocabularyService struct {
	addWordsFn       func(ctx context.Context, userID uuid.UUID, texts []string, priority int) (*service.AddWordsResult, error)
	listWordsFn      func(ctx context.Context, userID uuid.UUID, filter service.WordListFilter) ([]*service.WordDetails, error)
	getWordDetailsFn func(ctx context.Context, userID, wordID uuid.UUID) (*service.WordDetails, error)
	searchWordsFn    func(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Word, error)
	dueWordsFn       func(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Word, error)
	updateWordFn     func(ctx context.Context, userID, wordID uuid.UUID, update service.WordUpdate) (*service.WordDetails, error)
	deleteWordFn     func(ctx context.Context, userID, wordID uuid.UUID) error
	resetProgressFn  func(ctx context.Context, userID, wordID uuid.UUID) (*service.WordDetails, error)
}

func (m *mockVocabularyService) AddWords(
	ctx context.Context,
	userID uuid.UUID,
	texts []string,
	priority int,
) (*service.AddWordsResult, error) {
	return m.addWordsFn(ctx, userID, texts, priority)
}

func (m *mockVocabularyService) ListWords(
	ctx context.Context,
	userID uuid.UUID,
	filter service.WordListFilter,
) ([]*service.WordDetails, error) {
	return m.listWordsFn(ctx, userID, filter)
}

func (m *mockVocabularyService) GetWordDetails(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*service.WordDetails, error) {
	return m.getWordDetailsFn(ctx, userID, wordID)
}

func (m *mockVocabularyService) SearchWords(
	ctx context.Context,
	userID uuid.UUID,
	query string,
	limit int,
) ([]*domain.Word, error) {
	return m.searchWordsFn(ctx, userID, query, limit)
}

func (m *mockVocabularyService) DueWords(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Word, error) {
	return m.dueWordsFn(ctx, userID, limit)
}

func (m *mockVocabularyService) UpdateWord(
	ctx context.Context,
	userID, wordID uuid.UUID,
	update service.WordUpdate,
) (*service.WordDetails, error) {
	return m.updateWordFn(ctx, userID, wordID, update)
}

func (m *mockVocabularyService) DeleteWord(ctx context.Context, userID, wordID uuid.UUID) error {
	return m.deleteWordFn(ctx, userID, wordID)
}

func (m *mockVocabularyService) ResetWordProgress(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*service.WordDetails, error) {
	return m.resetProgressFn(ctx, userID, wordID)
}

func (m *mockVocabularyService) GetWord(ctx context.Context, wordID uuid.UUID) (*domain.Word, error) {
	return nil, nil
}

func (m *mockVocabularyService) ApplyEnrichment(
	ctx context.Context,
	wordID, userID uuid.UUID,
	content *generation.WordContent,
) error {
	return nil
}

func testWord(t *testing.T, text string) *domain.Word {
	t.Helper()
	word, err := domain.NewWord(text, "en-uk")
	require.NoError(t, err)
	word.Translation = "переклад"
	return word
}

func newWordHandler(vocabularyService service.VocabularyService) *WordHandler {
	return NewWordHandler(vocabularyService, discardLogger())
}

func TestAddWords(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		vocab := &mockVocabularyService{
			addWordsFn: func(ctx context.Context, uid uuid.UUID, texts []string, priority int) (*service.AddWordsResult, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, []string{"apple", "orange"}, texts)
				assert.Equal(t, 2, priority)
				return &service.AddWordsResult{Added: 2}, nil
			},
		}
		handler := newWordHandler(vocab)

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodPost, "/api/words",
			jsonBody(t, AddWordsRequest{Texts: []string{"apple", "orange"}, Priority: 2})), userID)
		handler.AddWords(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp service.AddWordsResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Added)
	})

	t.Run("empty texts", func(t *testing.T) {
		t.Parallel()
		handler := newWordHandler(&mockVocabularyService{})

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodPost, "/api/words",
			jsonBody(t, AddWordsRequest{Texts: []string{}})), uuid.New())
		handler.AddWords(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative priority", func(t *testing.T) {
		t.Parallel()
		handler := newWordHandler(&mockVocabularyService{})

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodPost, "/api/words",
			jsonBody(t, AddWordsRequest{Texts: []string{"apple"}, Priority: -1})), uuid.New())
		handler.AddWords(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing user ID", func(t *testing.T) {
		t.Parallel()
		handler := newWordHandler(&mockVocabularyService{})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/words",
			jsonBody(t, AddWordsRequest{Texts: []string{"apple"}}))
		handler.AddWords(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListWords(t *testing.T) {
	t.Parallel()

	t.Run("filters parsed from query", func(t *testing.T) {
		t.Parallel()
		var captured service.WordListFilter
		vocab := &mockVocabularyService{
			listWordsFn: func(ctx context.Context, userID uuid.UUID, filter service.WordListFilter) ([]*service.WordDetails, error) {
				captured = filter
				return []*service.WordDetails{}, nil
			},
		}
		handler := newWordHandler(vocab)

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodGet,
			"/api/words?learned=false&priority=2&limit=10&offset=5", nil), uuid.New())
		handler.ListWords(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.Learned)
		assert.False(t, *captured.Learned)
		require.NotNil(t, captured.Priority)
		assert.Equal(t, 2, *captured.Priority)
		assert.Equal(t, 10, captured.Limit)
		assert.Equal(t, 5, captured.Offset)
	})

	t.Run("no filters", func(t *testing.T) {
		t.Parallel()
		vocab := &mockVocabularyService{
			listWordsFn: func(ctx context.Context, userID uuid.UUID, filter service.WordListFilter) ([]*service.WordDetails, error) {
				assert.Nil(t, filter.Learned)
				assert.Nil(t, filter.Priority)
				assert.Equal(t, defaultListLimit, filter.Limit)
				return []*service.WordDetails{}, nil
			},
		}
		handler := newWordHandler(vocab)

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodGet, "/api/words", nil), uuid.New())
		handler.ListWords(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSearchWords(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		vocab := &mockVocabularyService{
			searchWordsFn: func(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Word, error) {
				assert.Equal(t, "app", query)
				return []*domain.Word{testWord(t, "apple")}, nil
			},
		}
		handler := newWordHandler(vocab)

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodGet, "/api/words/search?q=app", nil), uuid.New())
		handler.SearchWords(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var resp []*domain.Word
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "apple", resp[0].Text)
	})

	t.Run("missing query", func(t *testing.T) {
		t.Parallel()
		handler := newWordHandler(&mockVocabularyService{})

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodGet, "/api/words/search", nil), uuid.New())
		handler.SearchWords(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDueWords(t *testing.T) {
	t.Parallel()

	vocab := &mockVocabularyService{
		dueWordsFn: func(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Word, error) {
			return []*domain.Word{testWord(t, "apple"), testWord(t, "orange")}, nil
		},
	}
	handler := newWordHandler(vocab)

	w := httptest.NewRecorder()
	r := withUser(httptest.NewRequest(http.MethodGet, "/api/words/due", nil), uuid.New())
	handler.DueWords(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp []*domain.Word
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestGetWord(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		word := testWord(t, "apple")
		vocab := &mockVocabularyService{
			getWordDetailsFn: func(ctx context.Context, userID, wordID uuid.UUID) (*service.WordDetails, error) {
				assert.Equal(t, word.ID, wordID)
				return &service.WordDetails{Word: word}, nil
			},
		}
		handler := newWordHandler(vocab)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/words/"+word.ID.String(), nil)
		r = withUser(withRouteParam(r, "id", word.ID.String()), uuid.New())
		handler.GetWord(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var resp service.WordDetails
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Word)
		assert.Equal(t, "apple", resp.Word.Text)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		vocab := &mockVocabularyService{
			getWordDetailsFn: func(ctx context.Context, userID, wordID uuid.UUID) (*service.WordDetails, error) {
				return nil, service.ErrWordNotFound
			},
		}
		handler := newWordHandler(vocab)

		wordID := uuid.New()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/words/"+wordID.String(), nil)
		r = withUser(withRouteParam(r, "id", wordID.String()), uuid.New())
		handler.GetWord(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed ID", func(t *testing.T) {
		t.Parallel()
		handler := newWordHandler(&mockVocabularyService{})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/words/not-a-uuid", nil)
		r = withUser(withRouteParam(r, "id", "not-a-uuid"), uuid.New())
		handler.GetWord(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateWord(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		word := testWord(t, "apple")
		var captured service.WordUpdate
		vocab := &mockVocabularyService{
			updateWordFn: func(ctx context.Context, userID, wordID uuid.UUID, update service.WordUpdate) (*service.WordDetails, error) {
				captured = update
				return &service.WordDetails{Word: word}, nil
			},
		}
		handler := newWordHandler(vocab)

		translation := "яблуко"
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/api/words/"+word.ID.String(),
			jsonBody(t, UpdateWordRequest{Translation: &translation}))
		r = withUser(withRouteParam(r, "id", word.ID.String()), uuid.New())
		handler.UpdateWord(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.Translation)
		assert.Equal(t, "яблуко", *captured.Translation)
		assert.Nil(t, captured.Priority)
	})

	t.Run("not owned", func(t *testing.T) {
		t.Parallel()
		vocab := &mockVocabularyService{
			updateWordFn: func(ctx context.Context, userID, wordID uuid.UUID, update service.WordUpdate) (*service.WordDetails, error) {
				return nil, service.ErrNotOwned
			},
		}
		handler := newWordHandler(vocab)

		wordID := uuid.New()
		translation := "яблуко"
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/api/words/"+wordID.String(),
			jsonBody(t, UpdateWordRequest{Translation: &translation}))
		r = withUser(withRouteParam(r, "id", wordID.String()), uuid.New())
		handler.UpdateWord(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteWord(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		wordID := uuid.New()
		vocab := &mockVocabularyService{
			deleteWordFn: func(ctx context.Context, userID, id uuid.UUID) error {
				assert.Equal(t, wordID, id)
				return nil
			},
		}
		handler := newWordHandler(vocab)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/api/words/"+wordID.String(), nil)
		r = withUser(withRouteParam(r, "id", wordID.String()), uuid.New())
		handler.DeleteWord(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("service failure", func(t *testing.T) {
		t.Parallel()
		vocab := &mockVocabularyService{
			deleteWordFn: func(ctx context.Context, userID, id uuid.UUID) error {
				return errors.New("constraint violation on user_words_fk")
			},
		}
		handler := newWordHandler(vocab)

		wordID := uuid.New()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/api/words/"+wordID.String(), nil)
		r = withUser(withRouteParam(r, "id", wordID.String()), uuid.New())
		handler.DeleteWord(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "constraint")
	})
}

func TestResetProgress(t *testing.T) {
	t.Parallel()

	word := testWord(t, "apple")
	vocab := &mockVocabularyService{
		resetProgressFn: func(ctx context.Context, userID, wordID uuid.UUID) (*service.WordDetails, error) {
			return &service.WordDetails{
				Word:     word,
				UserWord: &domain.UserWord{WordID: word.ID, Learned: false, ReviewStage: 0},
			}, nil
		},
	}
	handler := newWordHandler(vocab)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/words/"+word.ID.String()+"/reset", nil)
	r = withUser(withRouteParam(r, "id", word.ID.String()), uuid.New())
	handler.ResetProgress(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp service.WordDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.UserWord)
	assert.False(t, resp.UserWord.Learned)
	assert.Zero(t, resp.UserWord.ReviewStage)
}
