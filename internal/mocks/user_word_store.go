package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/store"
)

// MockUserWordStore implements store.UserWordStore for testing. The default
// implementation keeps user words in a map keyed by ID; function fields
// override individual methods. Defaults that need the dictionary words
// behind the user words (Search, ListDueWords, GetRandomWords) return empty
// results unless their function field is set.
type MockUserWordStore struct {
	CreateFn               func(ctx context.Context, userWord *domain.UserWord) error
	GetByIDFn              func(ctx context.Context, id uuid.UUID) (*domain.UserWord, error)
	GetByUserAndWordFn     func(ctx context.Context, userID, wordID uuid.UUID) (*domain.UserWord, error)
	UpdateFn               func(ctx context.Context, userWord *domain.UserWord) error
	DeleteFn               func(ctx context.Context, id uuid.UUID) error
	ListByUserFn           func(ctx context.Context, userID uuid.UUID, filter store.UserWordFilter) ([]*domain.UserWord, error)
	SearchFn               func(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Word, error)
	CountByUserFn          func(ctx context.Context, userID uuid.UUID) (int, error)
	CountLearnedByUserFn   func(ctx context.Context, userID uuid.UUID) (int, error)
	ListReviewCandidatesFn func(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.UserWord, error)
	ListNewCandidatesFn    func(ctx context.Context, userID uuid.UUID) ([]*domain.UserWord, error)
	CountDueFn             func(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	ListDueWordsFn         func(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Word, error)
	DistinctPrioritiesFn   func(ctx context.Context, userID uuid.UUID) ([]int, error)
	DecreasePrioritiesFn   func(ctx context.Context, userID uuid.UUID, priorities []int) (int, error)
	GetRandomWordsFn       func(ctx context.Context, userID uuid.UUID, count int, excludeWordID uuid.UUID) ([]*domain.Word, error)

	// UserWords backs the default implementations, keyed by user word ID.
	UserWords map[uuid.UUID]*domain.UserWord
}

// Statically verify the interface is satisfied.
var _ store.UserWordStore = (*MockUserWordStore)(nil)

// NewMockUserWordStore creates a new mock store with initialized defaults.
func NewMockUserWordStore() *MockUserWordStore {
	return &MockUserWordStore{
		UserWords: make(map[uuid.UUID]*domain.UserWord),
	}
}

// Add stores the given user words directly, bypassing duplicate checks.
func (m *MockUserWordStore) Add(userWords ...*domain.UserWord) {
	for _, uw := range userWords {
		m.UserWords[uw.ID] = uw
	}
}

// byUser returns the user's words sorted by creation time, newest first.
func (m *MockUserWordStore) byUser(userID uuid.UUID) []*domain.UserWord {
	words := make([]*domain.UserWord, 0)
	for _, uw := range m.UserWords {
		if uw.UserID == userID {
			words = append(words, uw)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		return words[i].CreatedAt.After(words[j].CreatedAt)
	})
	return words
}

// Create implements the store.UserWordStore interface.
func (m *MockUserWordStore) Create(ctx context.Context, userWord *domain.UserWord) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userWord)
	}
	for _, existing := range m.UserWords {
		if existing.UserID == userWord.UserID && existing.WordID == userWord.WordID {
			return store.ErrUserWordExists
		}
	}
	m.UserWords[userWord.ID] = userWord
	return nil
}

// GetByID implements the store.UserWordStore interface.
func (m *MockUserWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserWord, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	userWord, exists := m.UserWords[id]
	if !exists {
		return nil, store.ErrUserWordNotFound
	}
	return userWord, nil
}

// GetByUserAndWord implements the store.UserWordStore interface.
func (m *MockUserWordStore) GetByUserAndWord(ctx context.Context, userID, wordID uuid.UUID) (*domain.UserWord, error) {
	if m.GetByUserAndWordFn != nil {
		return m.GetByUserAndWordFn(ctx, userID, wordID)
	}
	for _, uw := range m.UserWords {
		if uw.UserID == userID && uw.WordID == wordID {
			return uw, nil
		}
	}
	return nil, store.ErrUserWordNotFound
}

// Update implements the store.UserWordStore interface.
func (m *MockUserWordStore) Update(ctx context.Context, userWord *domain.UserWord) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userWord)
	}
	if _, exists := m.UserWords[userWord.ID]; !exists {
		return store.ErrUserWordNotFound
	}
	m.UserWords[userWord.ID] = userWord
	return nil
}

// Delete implements the store.UserWordStore interface.
func (m *MockUserWordStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, exists := m.UserWords[id]; !exists {
		return store.ErrUserWordNotFound
	}
	delete(m.UserWords, id)
	return nil
}

// ListByUser implements the store.UserWordStore interface.
func (m *MockUserWordStore) ListByUser(ctx context.Context, userID uuid.UUID, filter store.UserWordFilter) ([]*domain.UserWord, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID, filter)
	}
	matched := make([]*domain.UserWord, 0)
	for _, uw := range m.byUser(userID) {
		if filter.Learned != nil && uw.Learned != *filter.Learned {
			continue
		}
		if filter.Priority != nil && uw.Priority != *filter.Priority {
			continue
		}
		matched = append(matched, uw)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*domain.UserWord{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Search implements the store.UserWordStore interface.
func (m *MockUserWordStore) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Word, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, userID, query, limit)
	}
	return []*domain.Word{}, nil
}

// CountByUser implements the store.UserWordStore interface.
func (m *MockUserWordStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.CountByUserFn != nil {
		return m.CountByUserFn(ctx, userID)
	}
	return len(m.byUser(userID)), nil
}

// CountLearnedByUser implements the store.UserWordStore interface.
func (m *MockUserWordStore) CountLearnedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.CountLearnedByUserFn != nil {
		return m.CountLearnedByUserFn(ctx, userID)
	}
	count := 0
	for _, uw := range m.byUser(userID) {
		if uw.Learned {
			count++
		}
	}
	return count, nil
}

// ListReviewCandidates implements the store.UserWordStore interface.
func (m *MockUserWordStore) ListReviewCandidates(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.UserWord, error) {
	if m.ListReviewCandidatesFn != nil {
		return m.ListReviewCandidatesFn(ctx, userID, now)
	}
	candidates := make([]*domain.UserWord, 0)
	for _, uw := range m.byUser(userID) {
		if uw.Learned && uw.Priority > 0 && !uw.NextReviewAt.After(now) {
			candidates = append(candidates, uw)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates, nil
}

// ListNewCandidates implements the store.UserWordStore interface.
func (m *MockUserWordStore) ListNewCandidates(ctx context.Context, userID uuid.UUID) ([]*domain.UserWord, error) {
	if m.ListNewCandidatesFn != nil {
		return m.ListNewCandidatesFn(ctx, userID)
	}
	candidates := make([]*domain.UserWord, 0)
	for _, uw := range m.byUser(userID) {
		if !uw.Learned {
			candidates = append(candidates, uw)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates, nil
}

// CountDue implements the store.UserWordStore interface.
func (m *MockUserWordStore) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	if m.CountDueFn != nil {
		return m.CountDueFn(ctx, userID, now)
	}
	candidates, _ := m.ListReviewCandidates(ctx, userID, now)
	return len(candidates), nil
}

// ListDueWords implements the store.UserWordStore interface.
func (m *MockUserWordStore) ListDueWords(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Word, error) {
	if m.ListDueWordsFn != nil {
		return m.ListDueWordsFn(ctx, userID, now, limit)
	}
	return []*domain.Word{}, nil
}

// DistinctPriorities implements the store.UserWordStore interface.
func (m *MockUserWordStore) DistinctPriorities(ctx context.Context, userID uuid.UUID) ([]int, error) {
	if m.DistinctPrioritiesFn != nil {
		return m.DistinctPrioritiesFn(ctx, userID)
	}
	seen := make(map[int]struct{})
	priorities := make([]int, 0)
	for _, uw := range m.byUser(userID) {
		if _, dup := seen[uw.Priority]; dup {
			continue
		}
		seen[uw.Priority] = struct{}{}
		priorities = append(priorities, uw.Priority)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(priorities)))
	return priorities, nil
}

// DecreasePriorities implements the store.UserWordStore interface.
func (m *MockUserWordStore) DecreasePriorities(ctx context.Context, userID uuid.UUID, priorities []int) (int, error) {
	if m.DecreasePrioritiesFn != nil {
		return m.DecreasePrioritiesFn(ctx, userID, priorities)
	}
	affected := 0
	for _, uw := range m.byUser(userID) {
		for _, p := range priorities {
			if uw.Priority == p {
				uw.Priority--
				affected++
				break
			}
		}
	}
	return affected, nil
}

// GetRandomWords implements the store.UserWordStore interface.
func (m *MockUserWordStore) GetRandomWords(ctx context.Context, userID uuid.UUID, count int, excludeWordID uuid.UUID) ([]*domain.Word, error) {
	if m.GetRandomWordsFn != nil {
		return m.GetRandomWordsFn(ctx, userID, count, excludeWordID)
	}
	return []*domain.Word{}, nil
}

// WithTx implements the store.UserWordStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockUserWordStore) WithTx(tx *sql.Tx) store.UserWordStore {
	return m
}
