package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
)

// CycleStore defines the interface for learning cycle persistence,
// covering both the cycles themselves and the words attached to them.
type CycleStore interface {
	// Create saves a new learning cycle to the store.
	// Returns validation errors from the domain LearningCycle if data is invalid.
	Create(ctx context.Context, cycle *domain.LearningCycle) error

	// GetByID retrieves a cycle by its unique ID.
	// Returns ErrCycleNotFound if the cycle does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningCycle, error)

	// GetActive retrieves the user's newest incomplete cycle.
	// Returns ErrCycleNotFound when the user has no open cycle.
	GetActive(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error)

	// Update modifies an existing cycle.
	// Returns ErrCycleNotFound if the cycle does not exist.
	Update(ctx context.Context, cycle *domain.LearningCycle) error

	// CreateWords attaches the given words to their cycles.
	// IMPORTANT: run this within a transaction together with Create so a
	// cycle is never stored half-populated. Use WithTx with
	// store.RunInTransaction to ensure proper transaction handling.
	CreateWords(ctx context.Context, cycleWords []*domain.CycleWord) error

	// GetWords retrieves all words attached to a cycle, in insertion order.
	GetWords(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error)

	// GetUnlearnedWords retrieves the cycle's words that have not been
	// learned yet, in insertion order. An empty result means the cycle
	// is ready to be completed.
	GetUnlearnedWords(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error)

	// GetWordByUserWord retrieves a cycle's membership row for the given
	// user word. Returns ErrCycleWordNotFound if the word is not part of
	// the cycle.
	GetWordByUserWord(ctx context.Context, cycleID, userWordID uuid.UUID) (*domain.CycleWord, error)

	// UpdateWord modifies an existing cycle word.
	// Returns ErrCycleWordNotFound if it does not exist.
	UpdateWord(ctx context.Context, cycleWord *domain.CycleWord) error

	// SaveProgress stores the serialized training progress for a cycle
	// word. Called after every training action, so it updates only the
	// progress column. Returns ErrCycleWordNotFound if it does not exist.
	SaveProgress(ctx context.Context, cycleWordID uuid.UUID, progress json.RawMessage) error

	// ClearProgress wipes the stored training progress of every word in
	// the cycle. Called when an idle training session is evicted; the
	// memberships themselves survive.
	ClearProgress(ctx context.Context, cycleID uuid.UUID) error

	// ListCompletedSince retrieves the user's cycles completed at or
	// after the given time, newest first. Feeds statistics and streaks.
	ListCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.LearningCycle, error)

	// CountCompletedSince returns how many cycles the user completed at
	// or after the given time.
	CountCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// WithTx returns a new CycleStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) CycleStore
}
