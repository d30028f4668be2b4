package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/store"
)

// MockUserStore implements store.UserStore for testing. The default
// implementation keeps users in a map keyed by email; function fields
// override individual methods.
type MockUserStore struct {
	CreateFn                  func(ctx context.Context, user *domain.User) error
	GetByIDFn                 func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFn              func(ctx context.Context, email string) (*domain.User, error)
	UpdateFn                  func(ctx context.Context, user *domain.User) error
	DeleteFn                  func(ctx context.Context, id uuid.UUID) error
	SetWordsAddedAtFn         func(ctx context.Context, id uuid.UUID, at time.Time) error
	SetLastNotificationAtFn   func(ctx context.Context, id uuid.UUID, at time.Time) error
	CountFn                   func(ctx context.Context) (int, error)
	ListNotifiableFn          func(ctx context.Context) ([]*domain.User, error)
	ListForNotificationHourFn func(ctx context.Context, hour int) ([]*domain.User, error)

	// Users backs the default implementations, keyed by email.
	Users map[string]*domain.User

	// Errors returned by the default implementations when set.
	CreateError     error
	GetByEmailError error
}

// Statically verify the interface is satisfied.
var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		Users: make(map[string]*domain.User),
	}
}

// Create implements the store.UserStore interface.
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.Users[user.Email]; exists {
		return store.ErrEmailExists
	}
	m.Users[user.Email] = user
	return nil
}

// GetByID implements the store.UserStore interface.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	for _, user := range m.Users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByEmail implements the store.UserStore interface.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	if m.GetByEmailError != nil {
		return nil, m.GetByEmailError
	}
	user, exists := m.Users[email]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// Update implements the store.UserStore interface.
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	for email, existing := range m.Users {
		if existing.ID == user.ID {
			if email != user.Email {
				delete(m.Users, email)
			}
			m.Users[user.Email] = user
			return nil
		}
	}
	return store.ErrUserNotFound
}

// Delete implements the store.UserStore interface.
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	for email, user := range m.Users {
		if user.ID == id {
			delete(m.Users, email)
			return nil
		}
	}
	return store.ErrUserNotFound
}

// SetWordsAddedAt implements the store.UserStore interface.
func (m *MockUserStore) SetWordsAddedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.SetWordsAddedAtFn != nil {
		return m.SetWordsAddedAtFn(ctx, id, at)
	}
	for _, user := range m.Users {
		if user.ID == id {
			user.WordsAddedAt = at
			return nil
		}
	}
	return store.ErrUserNotFound
}

// SetLastNotificationAt implements the store.UserStore interface.
func (m *MockUserStore) SetLastNotificationAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.SetLastNotificationAtFn != nil {
		return m.SetLastNotificationAtFn(ctx, id, at)
	}
	for _, user := range m.Users {
		if user.ID == id {
			user.LastNotificationAt = at
			return nil
		}
	}
	return store.ErrUserNotFound
}

// Count implements the store.UserStore interface.
func (m *MockUserStore) Count(ctx context.Context) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return len(m.Users), nil
}

// ListNotifiable implements the store.UserStore interface.
func (m *MockUserStore) ListNotifiable(ctx context.Context) ([]*domain.User, error) {
	if m.ListNotifiableFn != nil {
		return m.ListNotifiableFn(ctx)
	}
	var users []*domain.User
	for _, user := range m.Users {
		if user.NotificationsEnabled {
			users = append(users, user)
		}
	}
	return users, nil
}

// ListForNotificationHour implements the store.UserStore interface.
func (m *MockUserStore) ListForNotificationHour(ctx context.Context, hour int) ([]*domain.User, error) {
	if m.ListForNotificationHourFn != nil {
		return m.ListForNotificationHourFn(ctx, hour)
	}
	var users []*domain.User
	for _, user := range m.Users {
		if user.NotificationsEnabled && user.NotificationHour == hour {
			users = append(users, user)
		}
	}
	return users, nil
}

// WithTx implements the store.UserStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}
