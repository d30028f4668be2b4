package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Cycle-specific validation errors
var (
	// ErrEmptyCycleID is returned when a cycle ID is empty or nil.
	ErrEmptyCycleID = errors.New("cycle ID cannot be empty")

	// ErrEmptyCycleUserID is returned when a cycle's user ID is empty or nil.
	ErrEmptyCycleUserID = errors.New("cycle user ID cannot be empty")

	// ErrEmptyCycleWordID is returned when a cycle word ID is empty or nil.
	ErrEmptyCycleWordID = errors.New("cycle word ID cannot be empty")

	// ErrCycleAlreadyCompleted is returned when completing a finished cycle.
	ErrCycleAlreadyCompleted = errors.New("cycle is already completed")

	// ErrInvalidProgress is returned when stored training progress is not valid JSON.
	ErrInvalidProgress = errors.New("training progress must be valid JSON")
)

// LearningCycle is one batch of words a user works through. A cycle
// stays open until every word in it has been learned; it is never
// closed by the clock, so an unfinished cycle carries over to the next
// day unchanged.
type LearningCycle struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is zero while the cycle is open.
	CompletedAt time.Time `json:"completed_at"`

	Completed    bool      `json:"completed"`
	WordsLearned int       `json:"words_learned"`
	TimeSpent    float64   `json:"time_spent"` // minutes
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewLearningCycle creates a new open cycle for the user.
// Returns an error if validation fails.
func NewLearningCycle(userID uuid.UUID) (*LearningCycle, error) {
	cycle := &LearningCycle{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := cycle.Validate(); err != nil {
		return nil, err
	}

	return cycle, nil
}

// Validate checks if the LearningCycle has valid data.
// Returns an error if any field fails validation.
func (c *LearningCycle) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCycleID
	}

	if c.UserID == uuid.Nil {
		return ErrEmptyCycleUserID
	}

	return nil
}

// Complete marks the cycle finished at the given time.
// Returns an error if the cycle is already completed.
func (c *LearningCycle) Complete(now time.Time) error {
	if c.Completed {
		return ErrCycleAlreadyCompleted
	}

	c.Completed = true
	c.CompletedAt = now.UTC()
	c.UpdatedAt = now.UTC()
	return nil
}

// CycleWord is a word's membership in a learning cycle. Progress holds
// the serialized training state for the word (required and completed
// methods, attempt counts); it is cleared when an idle training session
// is evicted, while the membership itself survives until the word is
// learned.
type CycleWord struct {
	ID         uuid.UUID       `json:"id"`
	CycleID    uuid.UUID       `json:"cycle_id"`
	UserWordID uuid.UUID       `json:"user_word_id"`
	Learned    bool            `json:"learned"`
	TimeSpent  float64         `json:"time_spent"` // minutes
	Progress   json.RawMessage `json:"progress,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewCycleWord creates a new unlearned cycle membership for a user word.
// Returns an error if validation fails.
func NewCycleWord(cycleID, userWordID uuid.UUID) (*CycleWord, error) {
	cycleWord := &CycleWord{
		ID:         uuid.New(),
		CycleID:    cycleID,
		UserWordID: userWordID,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := cycleWord.Validate(); err != nil {
		return nil, err
	}

	return cycleWord, nil
}

// Validate checks if the CycleWord has valid data.
// Returns an error if any field fails validation.
func (cw *CycleWord) Validate() error {
	if cw.ID == uuid.Nil {
		return ErrEmptyCycleWordID
	}

	if cw.CycleID == uuid.Nil {
		return ErrEmptyCycleID
	}

	if cw.UserWordID == uuid.Nil {
		return ErrEmptyUserWordID
	}

	if len(cw.Progress) > 0 {
		var js json.RawMessage
		if err := json.Unmarshal(cw.Progress, &js); err != nil {
			return ErrInvalidProgress
		}
	}

	return nil
}
