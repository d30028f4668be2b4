package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
)

// UserWordFilter narrows ListByUser results. Nil pointer fields mean
// "no constraint". Limit 0 means no limit.
type UserWordFilter struct {
	Learned  *bool
	Priority *int
	Limit    int
	Offset   int
}

// UserWordStore defines the interface for per-user word state persistence.
// It also hosts the candidate queries that feed cycle word selection, since
// those are defined entirely by user word state.
type UserWordStore interface {
	// Create saves a new user word to the store.
	// Returns ErrUserWordExists if the user already has this word.
	// Returns validation errors from the domain UserWord if data is invalid.
	Create(ctx context.Context, userWord *domain.UserWord) error

	// GetByID retrieves a user word by its unique ID.
	// Returns ErrUserWordNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserWord, error)

	// GetByUserAndWord retrieves the user's state for a specific word.
	// Returns ErrUserWordNotFound if the user does not have the word.
	GetByUserAndWord(ctx context.Context, userID, wordID uuid.UUID) (*domain.UserWord, error)

	// Update modifies an existing user word.
	// Returns ErrUserWordNotFound if it does not exist.
	Update(ctx context.Context, userWord *domain.UserWord) error

	// Delete removes a word from the user's dictionary.
	// Returns ErrUserWordNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByUser retrieves a page of the user's dictionary ordered by
	// creation time, newest first, optionally filtered.
	ListByUser(ctx context.Context, userID uuid.UUID, filter UserWordFilter) ([]*domain.UserWord, error)

	// Search retrieves the user's dictionary words whose text or
	// translation matches the query, case-insensitively, capped at limit.
	Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Word, error)

	// CountByUser returns the size of the user's dictionary.
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// CountLearnedByUser returns how many of the user's words have been
	// learned at least once. Drives the achievement checks.
	CountLearnedByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// ListReviewCandidates retrieves learned words that are due for
	// review at the given time, ordered by priority descending. Parked
	// words (priority 0) and words whose dictionary entry has not been
	// enriched yet are excluded.
	ListReviewCandidates(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.UserWord, error)

	// ListNewCandidates retrieves words the user has not learned yet,
	// ordered by priority descending. Unenriched words are excluded so a
	// cycle never contains a word without content to train on.
	ListNewCandidates(ctx context.Context, userID uuid.UUID) ([]*domain.UserWord, error)

	// CountDue returns how many of the user's words are due for review
	// at the given time. Used by the review reminder.
	CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// ListDueWords retrieves the dictionary words behind the user's due
	// reviews, highest priority first, capped at limit. Used to list a
	// few words in the review reminder message.
	ListDueWords(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Word, error)

	// DistinctPriorities returns the distinct priority values present in
	// the user's dictionary, highest first. Feeds the priority downgrade
	// cascade.
	DistinctPriorities(ctx context.Context, userID uuid.UUID) ([]int, error)

	// DecreasePriorities lowers by one the priority of every user word
	// currently at any of the given priorities. Returns the number of
	// words updated.
	DecreasePriorities(ctx context.Context, userID uuid.UUID, priorities []int) (int, error)

	// GetRandomWords retrieves up to count random dictionary words from
	// the user's dictionary, excluding the given word. Used to build
	// wrong answers for multiple choice training.
	GetRandomWords(ctx context.Context, userID uuid.UUID, count int, excludeWordID uuid.UUID) ([]*domain.Word, error)

	// WithTx returns a new UserWordStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) UserWordStore
}
