package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/store"
)

// MockActivityStore implements store.ActivityStore for testing. Entries are
// appended to a slice in the order they are created, so tests can assert on
// what was recorded and when.
type MockActivityStore struct {
	CreateFn     func(ctx context.Context, entry *domain.ActivityEntry) error
	ListByUserFn func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.ActivityEntry, error)

	// Entries holds every created entry in creation order.
	Entries []*domain.ActivityEntry
}

// Statically verify the interface is satisfied.
var _ store.ActivityStore = (*MockActivityStore)(nil)

// NewMockActivityStore creates a new empty mock store.
func NewMockActivityStore() *MockActivityStore {
	return &MockActivityStore{}
}

// Create implements the store.ActivityStore interface.
func (m *MockActivityStore) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, entry)
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// ListByUser implements the store.ActivityStore interface.
func (m *MockActivityStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.ActivityEntry, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID, limit, offset)
	}
	matched := make([]*domain.ActivityEntry, 0)
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].UserID == userID {
			matched = append(matched, m.Entries[i])
		}
	}
	if offset > 0 {
		if offset >= len(matched) {
			return []*domain.ActivityEntry{}, nil
		}
		matched = matched[offset:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Categories returns the category of every recorded entry in order.
func (m *MockActivityStore) Categories() []string {
	categories := make([]string, 0, len(m.Entries))
	for _, entry := range m.Entries {
		categories = append(categories, entry.Category)
	}
	return categories
}

// WithTx implements the store.ActivityStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockActivityStore) WithTx(tx *sql.Tx) store.ActivityStore {
	return m
}
