package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActivityLevel classifies an activity entry.
type ActivityLevel string

// Possible activity levels
const (
	ActivityLevelInfo    ActivityLevel = "INFO"
	ActivityLevelWarning ActivityLevel = "WARNING"
	ActivityLevelError   ActivityLevel = "ERROR"
)

// Well-known activity categories. The column is free-form; these cover
// the events the services record.
const (
	ActivityUserCreated         = "user_created"
	ActivitySettingsUpdated     = "settings_updated"
	ActivityWordsAdded          = "words_added"
	ActivityWordPriorityUpdated = "word_priority_updated"
	ActivityWordLearned         = "word_learned"
	ActivityWordDeleted         = "word_deleted"
	ActivityWordEnriched        = "word_enriched"
	ActivityCycleCompleted      = "cycle_completed"
)

// Activity validation errors
var (
	ErrEmptyActivityID      = errors.New("activity ID cannot be empty")
	ErrEmptyActivityUserID  = errors.New("activity user ID cannot be empty")
	ErrEmptyActivityMessage = errors.New("activity message cannot be empty")
)

// ActivityEntry is a per-user audit record of what happened in their
// account: words added, settings changed, cycles completed and so on.
type ActivityEntry struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Message   string        `json:"message"`
	Level     ActivityLevel `json:"level"`
	Category  string        `json:"category"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewActivityEntry creates a new activity record.
// Returns an error if validation fails.
func NewActivityEntry(userID uuid.UUID, message string, level ActivityLevel, category string) (*ActivityEntry, error) {
	entry := &ActivityEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		Level:     level,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the ActivityEntry has valid data.
func (a *ActivityEntry) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyActivityID
	}

	if a.UserID == uuid.Nil {
		return ErrEmptyActivityUserID
	}

	if a.Message == "" {
		return ErrEmptyActivityMessage
	}

	if !isValidActivityLevel(a.Level) {
		return ErrInvalidActivityLevel
	}

	return nil
}

// isValidActivityLevel checks if the given level is a valid ActivityLevel.
func isValidActivityLevel(level ActivityLevel) bool {
	switch level {
	case ActivityLevelInfo, ActivityLevelWarning, ActivityLevelError:
		return true
	default:
		return false
	}
}
