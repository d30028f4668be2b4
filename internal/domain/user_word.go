package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// UserWord-specific validation errors
var (
	// ErrEmptyUserWordID is returned when a user word ID is empty or nil.
	ErrEmptyUserWordID = errors.New("user word ID cannot be empty")

	// ErrEmptyUserWordUserID is returned when a user word's user ID is empty or nil.
	ErrEmptyUserWordUserID = errors.New("user word user ID cannot be empty")

	// ErrEmptyUserWordWordID is returned when a user word's word ID is empty or nil.
	ErrEmptyUserWordWordID = errors.New("user word word ID cannot be empty")
)

// UserWord links a user to a dictionary word and tracks the learning
// state for that pairing: selection priority, whether the word has been
// learned, and its position on the spaced-repetition ladder.
//
// Priority 0 parks the word: it stays in the dictionary but is never
// picked for review. ReviewStage indexes the repetition-interval table;
// it advances each time the word is learned in a cycle.
type UserWord struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	WordID   uuid.UUID `json:"word_id"`
	Priority int       `json:"priority"`
	Learned  bool      `json:"learned"`

	// LastReviewedAt is zero until the word is learned for the first time.
	LastReviewedAt time.Time `json:"last_reviewed_at"`

	// NextReviewAt is zero until the word enters the review rotation.
	NextReviewAt time.Time `json:"next_review_at"`

	ReviewStage int       `json:"review_stage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUserWord creates a new unlearned UserWord at review stage zero.
// Returns an error if validation fails.
func NewUserWord(userID, wordID uuid.UUID, priority int) (*UserWord, error) {
	userWord := &UserWord{
		ID:        uuid.New(),
		UserID:    userID,
		WordID:    wordID,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := userWord.Validate(); err != nil {
		return nil, err
	}

	return userWord, nil
}

// Validate checks if the UserWord has valid data.
// Returns an error if any field fails validation.
func (uw *UserWord) Validate() error {
	if uw.ID == uuid.Nil {
		return ErrEmptyUserWordID
	}

	if uw.UserID == uuid.Nil {
		return ErrEmptyUserWordUserID
	}

	if uw.WordID == uuid.Nil {
		return ErrEmptyUserWordWordID
	}

	if uw.Priority < 0 {
		return ErrInvalidPriority
	}

	if uw.ReviewStage < 0 {
		return ErrInvalidReviewStage
	}

	return nil
}

// DueForReview reports whether the word should be offered for review at
// the given time. Parked words (priority 0) and words never learned are
// not due.
func (uw *UserWord) DueForReview(now time.Time) bool {
	if !uw.Learned || uw.Priority <= 0 {
		return false
	}
	return !uw.NextReviewAt.IsZero() && !uw.NextReviewAt.After(now)
}
