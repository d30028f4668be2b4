package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
)

// ActivityStore defines the interface for the per-user activity log.
type ActivityStore interface {
	// Create saves a new activity entry.
	// Returns validation errors from the domain ActivityEntry if data is invalid.
	Create(ctx context.Context, entry *domain.ActivityEntry) error

	// ListByUser retrieves a page of the user's activity, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.ActivityEntry, error)

	// WithTx returns a new ActivityStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ActivityStore
}
