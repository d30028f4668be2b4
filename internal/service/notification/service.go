// Package notification builds and records user notifications: the daily
// summary, review reminders, achievement and streak messages. Sending a
// notification means inserting a row the API serves; a chat front-end can
// relay the messages verbatim.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/store"
)

// Service produces notifications and serves the user's inbox. The pass
// methods are driven by the Scheduler; each returns how many
// notifications it sent and fails only when the user listing itself
// fails, logging and continuing on per-user errors.
type Service interface {
	// DailyReminderPass sends the daily summary to every notifiable user
	// whose preferred hour matches the given UTC hour.
	DailyReminderPass(ctx context.Context, hour int) (int, error)

	// ReviewReminderPass sends review reminders to users with due words,
	// no active cycle and no notification yet this learning day.
	ReviewReminderPass(ctx context.Context) (int, error)

	// MilestonePass sends achievement and streak notifications to users
	// who just hit one.
	MilestonePass(ctx context.Context) (int, error)

	// List retrieves a page of the user's notifications, newest first.
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)

	// MarkRead acknowledges one of the user's notifications. Returns
	// store.ErrNotificationNotFound if it does not exist or belongs to
	// someone else.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

// NotificationError wraps errors from the notification service with the
// operation that produced them.
type NotificationError struct {
	// Operation is the operation that failed (e.g. "daily_pass").
	Operation string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface for NotificationError.
func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NotificationError) Unwrap() error {
	return e.Err
}

// wrapError wraps err with the operation unless it is a sentinel the API
// layer matches directly.
func wrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotificationNotFound) {
		return err
	}
	return &NotificationError{Operation: operation, Err: err}
}
