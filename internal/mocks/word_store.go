package mocks

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/store"
)

// MockWordStore implements store.WordStore for testing. The default
// implementation keeps words in a map keyed by ID; function fields
// override individual methods.
type MockWordStore struct {
	CreateFn          func(ctx context.Context, word *domain.Word) error
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Word, error)
	GetByTextFn       func(ctx context.Context, text, languagePair string) (*domain.Word, error)
	GetByIDsFn        func(ctx context.Context, ids []uuid.UUID) ([]*domain.Word, error)
	UpdateFn          func(ctx context.Context, word *domain.Word) error
	DeleteFn          func(ctx context.Context, id uuid.UUID) error
	CountFn           func(ctx context.Context) (int, error)
	CountReferencesFn func(ctx context.Context, id uuid.UUID) (int, error)
	CreateExamplesFn  func(ctx context.Context, examples []*domain.WordExample) error
	GetExamplesFn     func(ctx context.Context, wordID uuid.UUID) ([]*domain.WordExample, error)

	// Words backs the default implementations, keyed by word ID.
	Words map[uuid.UUID]*domain.Word

	// Examples holds per-word usage examples for the default implementations.
	Examples map[uuid.UUID][]*domain.WordExample

	// References holds the per-word link counts reported by the default
	// CountReferences.
	References map[uuid.UUID]int
}

// Statically verify the interface is satisfied.
var _ store.WordStore = (*MockWordStore)(nil)

// NewMockWordStore creates a new mock store with initialized defaults.
func NewMockWordStore() *MockWordStore {
	return &MockWordStore{
		Words:      make(map[uuid.UUID]*domain.Word),
		Examples:   make(map[uuid.UUID][]*domain.WordExample),
		References: make(map[uuid.UUID]int),
	}
}

// Create implements the store.WordStore interface.
func (m *MockWordStore) Create(ctx context.Context, word *domain.Word) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, word)
	}
	for _, existing := range m.Words {
		if strings.EqualFold(existing.Text, word.Text) && existing.LanguagePair == word.LanguagePair {
			return store.ErrWordExists
		}
	}
	m.Words[word.ID] = word
	return nil
}

// GetByID implements the store.WordStore interface.
func (m *MockWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	word, exists := m.Words[id]
	if !exists {
		return nil, store.ErrWordNotFound
	}
	return word, nil
}

// GetByText implements the store.WordStore interface.
func (m *MockWordStore) GetByText(ctx context.Context, text, languagePair string) (*domain.Word, error) {
	if m.GetByTextFn != nil {
		return m.GetByTextFn(ctx, text, languagePair)
	}
	for _, word := range m.Words {
		if strings.EqualFold(word.Text, text) && word.LanguagePair == languagePair {
			return word, nil
		}
	}
	return nil, store.ErrWordNotFound
}

// GetByIDs implements the store.WordStore interface.
func (m *MockWordStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Word, error) {
	if m.GetByIDsFn != nil {
		return m.GetByIDsFn(ctx, ids)
	}
	words := make([]*domain.Word, 0, len(ids))
	for _, id := range ids {
		if word, exists := m.Words[id]; exists {
			words = append(words, word)
		}
	}
	return words, nil
}

// Update implements the store.WordStore interface.
func (m *MockWordStore) Update(ctx context.Context, word *domain.Word) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, word)
	}
	if _, exists := m.Words[word.ID]; !exists {
		return store.ErrWordNotFound
	}
	m.Words[word.ID] = word
	return nil
}

// Delete implements the store.WordStore interface.
func (m *MockWordStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, exists := m.Words[id]; !exists {
		return store.ErrWordNotFound
	}
	delete(m.Words, id)
	delete(m.Examples, id)
	return nil
}

// Count implements the store.WordStore interface.
func (m *MockWordStore) Count(ctx context.Context) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return len(m.Words), nil
}

// CountReferences implements the store.WordStore interface.
func (m *MockWordStore) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	if m.CountReferencesFn != nil {
		return m.CountReferencesFn(ctx, id)
	}
	return m.References[id], nil
}

// CreateExamples implements the store.WordStore interface.
func (m *MockWordStore) CreateExamples(ctx context.Context, examples []*domain.WordExample) error {
	if m.CreateExamplesFn != nil {
		return m.CreateExamplesFn(ctx, examples)
	}
	for _, example := range examples {
		m.Examples[example.WordID] = append(m.Examples[example.WordID], example)
	}
	return nil
}

// GetExamples implements the store.WordStore interface.
func (m *MockWordStore) GetExamples(ctx context.Context, wordID uuid.UUID) ([]*domain.WordExample, error) {
	if m.GetExamplesFn != nil {
		return m.GetExamplesFn(ctx, wordID)
	}
	return m.Examples[wordID], nil
}

// WithTx implements the store.WordStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockWordStore) WithTx(tx *sql.Tx) store.WordStore {
	return m
}
