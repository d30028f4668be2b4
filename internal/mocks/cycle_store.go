package mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/store"
)

// MockCycleStore implements store.CycleStore for testing. The default
// implementation keeps cycles and their word memberships in maps; function
// fields override individual methods.
type MockCycleStore struct {
	CreateFn              func(ctx context.Context, cycle *domain.LearningCycle) error
	GetByIDFn             func(ctx context.Context, id uuid.UUID) (*domain.LearningCycle, error)
	GetActiveFn           func(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error)
	UpdateFn              func(ctx context.Context, cycle *domain.LearningCycle) error
	CreateWordsFn         func(ctx context.Context, cycleWords []*domain.CycleWord) error
	GetWordsFn            func(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error)
	GetUnlearnedWordsFn   func(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error)
	GetWordByUserWordFn   func(ctx context.Context, cycleID, userWordID uuid.UUID) (*domain.CycleWord, error)
	UpdateWordFn          func(ctx context.Context, cycleWord *domain.CycleWord) error
	SaveProgressFn        func(ctx context.Context, cycleWordID uuid.UUID, progress json.RawMessage) error
	ClearProgressFn       func(ctx context.Context, cycleID uuid.UUID) error
	ListCompletedSinceFn  func(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.LearningCycle, error)
	CountCompletedSinceFn func(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// Cycles backs the default implementations, keyed by cycle ID.
	Cycles map[uuid.UUID]*domain.LearningCycle

	// CycleWords holds the word memberships of each cycle in insertion
	// order, keyed by cycle ID.
	CycleWords map[uuid.UUID][]*domain.CycleWord
}

// Statically verify the interface is satisfied.
var _ store.CycleStore = (*MockCycleStore)(nil)

// NewMockCycleStore creates a new mock store with initialized defaults.
func NewMockCycleStore() *MockCycleStore {
	return &MockCycleStore{
		Cycles:     make(map[uuid.UUID]*domain.LearningCycle),
		CycleWords: make(map[uuid.UUID][]*domain.CycleWord),
	}
}

// Create implements the store.CycleStore interface.
func (m *MockCycleStore) Create(ctx context.Context, cycle *domain.LearningCycle) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, cycle)
	}
	m.Cycles[cycle.ID] = cycle
	return nil
}

// GetByID implements the store.CycleStore interface.
func (m *MockCycleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningCycle, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	cycle, exists := m.Cycles[id]
	if !exists {
		return nil, store.ErrCycleNotFound
	}
	return cycle, nil
}

// GetActive implements the store.CycleStore interface.
func (m *MockCycleStore) GetActive(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error) {
	if m.GetActiveFn != nil {
		return m.GetActiveFn(ctx, userID)
	}
	var active *domain.LearningCycle
	for _, cycle := range m.Cycles {
		if cycle.UserID != userID || cycle.Completed {
			continue
		}
		if active == nil || cycle.StartedAt.After(active.StartedAt) {
			active = cycle
		}
	}
	if active == nil {
		return nil, store.ErrCycleNotFound
	}
	return active, nil
}

// Update implements the store.CycleStore interface.
func (m *MockCycleStore) Update(ctx context.Context, cycle *domain.LearningCycle) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, cycle)
	}
	if _, exists := m.Cycles[cycle.ID]; !exists {
		return store.ErrCycleNotFound
	}
	m.Cycles[cycle.ID] = cycle
	return nil
}

// CreateWords implements the store.CycleStore interface.
func (m *MockCycleStore) CreateWords(ctx context.Context, cycleWords []*domain.CycleWord) error {
	if m.CreateWordsFn != nil {
		return m.CreateWordsFn(ctx, cycleWords)
	}
	for _, cw := range cycleWords {
		m.CycleWords[cw.CycleID] = append(m.CycleWords[cw.CycleID], cw)
	}
	return nil
}

// GetWords implements the store.CycleStore interface.
func (m *MockCycleStore) GetWords(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error) {
	if m.GetWordsFn != nil {
		return m.GetWordsFn(ctx, cycleID)
	}
	return append([]*domain.CycleWord{}, m.CycleWords[cycleID]...), nil
}

// GetUnlearnedWords implements the store.CycleStore interface.
func (m *MockCycleStore) GetUnlearnedWords(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error) {
	if m.GetUnlearnedWordsFn != nil {
		return m.GetUnlearnedWordsFn(ctx, cycleID)
	}
	unlearned := make([]*domain.CycleWord, 0)
	for _, cw := range m.CycleWords[cycleID] {
		if !cw.Learned {
			unlearned = append(unlearned, cw)
		}
	}
	return unlearned, nil
}

// GetWordByUserWord implements the store.CycleStore interface.
func (m *MockCycleStore) GetWordByUserWord(ctx context.Context, cycleID, userWordID uuid.UUID) (*domain.CycleWord, error) {
	if m.GetWordByUserWordFn != nil {
		return m.GetWordByUserWordFn(ctx, cycleID, userWordID)
	}
	for _, cw := range m.CycleWords[cycleID] {
		if cw.UserWordID == userWordID {
			return cw, nil
		}
	}
	return nil, store.ErrCycleWordNotFound
}

// UpdateWord implements the store.CycleStore interface.
func (m *MockCycleStore) UpdateWord(ctx context.Context, cycleWord *domain.CycleWord) error {
	if m.UpdateWordFn != nil {
		return m.UpdateWordFn(ctx, cycleWord)
	}
	words := m.CycleWords[cycleWord.CycleID]
	for i, cw := range words {
		if cw.ID == cycleWord.ID {
			words[i] = cycleWord
			return nil
		}
	}
	return store.ErrCycleWordNotFound
}

// SaveProgress implements the store.CycleStore interface.
func (m *MockCycleStore) SaveProgress(ctx context.Context, cycleWordID uuid.UUID, progress json.RawMessage) error {
	if m.SaveProgressFn != nil {
		return m.SaveProgressFn(ctx, cycleWordID, progress)
	}
	for _, words := range m.CycleWords {
		for _, cw := range words {
			if cw.ID == cycleWordID {
				cw.Progress = progress
				return nil
			}
		}
	}
	return store.ErrCycleWordNotFound
}

// ClearProgress implements the store.CycleStore interface.
func (m *MockCycleStore) ClearProgress(ctx context.Context, cycleID uuid.UUID) error {
	if m.ClearProgressFn != nil {
		return m.ClearProgressFn(ctx, cycleID)
	}
	for _, cw := range m.CycleWords[cycleID] {
		cw.Progress = nil
	}
	return nil
}

// completedSince returns the user's completed cycles in the window, newest
// first.
func (m *MockCycleStore) completedSince(userID uuid.UUID, since time.Time) []*domain.LearningCycle {
	cycles := make([]*domain.LearningCycle, 0)
	for _, cycle := range m.Cycles {
		if cycle.UserID == userID && cycle.Completed && !cycle.CompletedAt.Before(since) {
			cycles = append(cycles, cycle)
		}
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].CompletedAt.After(cycles[j].CompletedAt)
	})
	return cycles
}

// ListCompletedSince implements the store.CycleStore interface.
func (m *MockCycleStore) ListCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.LearningCycle, error) {
	if m.ListCompletedSinceFn != nil {
		return m.ListCompletedSinceFn(ctx, userID, since)
	}
	return m.completedSince(userID, since), nil
}

// CountCompletedSince implements the store.CycleStore interface.
func (m *MockCycleStore) CountCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	if m.CountCompletedSinceFn != nil {
		return m.CountCompletedSinceFn(ctx, userID, since)
	}
	return len(m.completedSince(userID, since)), nil
}

// WithTx implements the store.CycleStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockCycleStore) WithTx(tx *sql.Tx) store.CycleStore {
	return m
}
