package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
// Notifications are produced by the background schedulers and consumed
// by clients over the API.
type NotificationStore interface {
	// Create saves a new notification.
	// Returns validation errors from the domain Notification if data is invalid.
	Create(ctx context.Context, notification *domain.Notification) error

	// ListByUser retrieves a page of the user's notifications, newest
	// first. When unreadOnly is set, read notifications are skipped.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)

	// MarkRead records that the user has seen the notification. The user
	// ID scopes the update so one user cannot acknowledge another's
	// notifications. Returns ErrNotificationNotFound if no matching
	// notification exists.
	MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error

	// CountByKindSince returns how many notifications of the kind were
	// created for the user at or after the given time. The schedulers
	// use it to cap repeat achievement and streak notifications.
	CountByKindSince(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, since time.Time) (int, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
