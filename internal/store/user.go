package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
)

// UserStore persists user accounts together with their learning and
// notification settings.
type UserStore interface {
	// Create validates the user, hashes the plaintext password, and saves
	// the row. Returns ErrEmailExists when the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns the user with the given ID, or ErrUserNotFound.
	// The plaintext password is never populated on reads.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail returns the user with the given email, or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update writes the full user row. The caller provides a complete user
	// including HashedPassword; a non-empty plaintext Password is hashed
	// and replaces the stored hash. Returns ErrUserNotFound or
	// ErrEmailExists as appropriate.
	Update(ctx context.Context, user *domain.User) error

	// Delete permanently removes the user and, through the schema's
	// cascades, everything the user owns. Returns ErrUserNotFound if the
	// user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetWordsAddedAt records when the user last added words. A narrow
	// update so the add-words path does not race full-row updates.
	// Returns ErrUserNotFound if the user does not exist.
	SetWordsAddedAt(ctx context.Context, id uuid.UUID, at time.Time) error

	// SetLastNotificationAt records when the user was last notified.
	// Returns ErrUserNotFound if the user does not exist.
	SetLastNotificationAt(ctx context.Context, id uuid.UUID, at time.Time) error

	// Count returns the total number of registered users.
	Count(ctx context.Context) (int, error)

	// ListNotifiable retrieves all users who have notifications enabled.
	// Used by the background schedulers to decide who to remind.
	ListNotifiable(ctx context.Context) ([]*domain.User, error)

	// ListForNotificationHour retrieves users with notifications enabled
	// whose preferred notification hour matches the given hour.
	ListForNotificationHour(ctx context.Context, hour int) ([]*domain.User, error)

	// WithTx returns a UserStore bound to the given transaction, so user
	// writes can join a larger unit of work managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}
