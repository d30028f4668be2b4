package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies what triggered a notification.
type NotificationKind string

// Possible notification kinds
const (
	NotificationDailyReminder  NotificationKind = "daily_reminder"
	NotificationReviewReminder NotificationKind = "review_reminder"
	NotificationAchievement    NotificationKind = "achievement"
	NotificationStreak         NotificationKind = "streak"
)

// Notification validation errors
var (
	ErrEmptyNotificationID      = errors.New("notification ID cannot be empty")
	ErrEmptyNotificationUserID  = errors.New("notification user ID cannot be empty")
	ErrEmptyNotificationMessage = errors.New("notification message cannot be empty")
)

// Notification is a message produced for a user by the background
// schedulers. Clients fetch and acknowledge them over the API; a chat
// front-end can relay them verbatim.
type Notification struct {
	ID      uuid.UUID        `json:"id"`
	UserID  uuid.UUID        `json:"user_id"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`

	// ReadAt is zero while the notification is unread.
	ReadAt    time.Time `json:"read_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotification creates a new unread notification.
// Returns an error if validation fails.
func NewNotification(userID uuid.UUID, kind NotificationKind, message string) (*Notification, error) {
	notification := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	if err := notification.Validate(); err != nil {
		return nil, err
	}

	return notification, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}

	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUserID
	}

	if n.Message == "" {
		return ErrEmptyNotificationMessage
	}

	if !isValidNotificationKind(n.Kind) {
		return ErrInvalidNotificationKind
	}

	return nil
}

// MarkRead records the time the notification was acknowledged.
func (n *Notification) MarkRead(now time.Time) {
	n.ReadAt = now.UTC()
}

// isValidNotificationKind checks if the given kind is a valid NotificationKind.
func isValidNotificationKind(kind NotificationKind) bool {
	switch kind {
	case NotificationDailyReminder, NotificationReviewReminder,
		NotificationAchievement, NotificationStreak:
		return true
	default:
		return false
	}
}
