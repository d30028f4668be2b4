// Package learning owns the cycle lifecycle: picking the words for a new
// cycle by priority buckets, carrying unfinished cycles across days,
// recording per-word learning and closing cycles when their words are done.
package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
)

// Common error types for the learning service
var (
	// ErrNoActiveCycle indicates the user has no open learning cycle.
	ErrNoActiveCycle = errors.New("no active learning cycle")

	// ErrNoWords indicates the user's dictionary has nothing to offer a
	// new cycle: no due reviews and no enriched unlearned words.
	ErrNoWords = errors.New("no words available for a new cycle")

	// ErrCycleNotOwned indicates the cycle belongs to a different user.
	ErrCycleNotOwned = errors.New("unauthorized access: cycle not owned by user")

	// ErrCycleWordNotFound indicates the user word is not part of the cycle.
	ErrCycleWordNotFound = errors.New("word not part of cycle")
)

// CycleEntry is a cycle word joined with the user's learning state and the
// dictionary word, everything training needs to drive one word.
type CycleEntry struct {
	CycleWord *domain.CycleWord `json:"cycle_word"`
	UserWord  *domain.UserWord  `json:"user_word"`
	Word      *domain.Word      `json:"word"`
}

// Service drives learning cycles.
type Service interface {
	// ActiveCycle returns the user's open cycle.
	// Returns ErrNoActiveCycle when every cycle is completed.
	ActiveCycle(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error)

	// CreateCycle selects words by priority buckets and opens a new cycle
	// holding them. Review words are picked first up to the review quota,
	// the remainder is filled with new words.
	// Returns ErrNoWords when nothing qualifies; no cycle row is created.
	CreateCycle(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error)

	// WordsForCycle returns the open cycle and its unlearned words. A
	// cycle found empty is completed on the spot and the next incomplete
	// one is tried, so stale cycles never block progress.
	// Returns ErrNoActiveCycle when no open cycle remains.
	WordsForCycle(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, []*CycleEntry, error)

	// EnsureCycle returns the open cycle's words, creating a cycle first
	// when none is open. Returns ErrNoWords when a cycle cannot be filled.
	EnsureCycle(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, []*CycleEntry, error)

	// MarkWordLearned records that the user finished a word's training:
	// time is accumulated on the cycle word and the cycle, the learned
	// counter moves on the first transition only, and the user word
	// advances one review stage.
	MarkWordLearned(ctx context.Context, userID, cycleID, userWordID uuid.UUID, timeSpent float64) error

	// CompleteCycle closes the cycle and records the completion.
	CompleteCycle(ctx context.Context, userID, cycleID uuid.UUID) error

	// SaveProgress persists a cycle word's serialized training state.
	SaveProgress(ctx context.Context, cycleWordID uuid.UUID, progress json.RawMessage) error

	// ClearProgress wipes the stored training state of every word in the
	// cycle. Used when an idle training session is evicted: the cycle and
	// its words survive, method progress starts over.
	ClearProgress(ctx context.Context, cycleID uuid.UUID) error
}

// LearningError wraps errors from the learning service with the operation
// that produced them.
type LearningError struct {
	// Operation is the operation that failed (e.g. "create_cycle").
	Operation string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface for LearningError.
func (e *LearningError) Error() string {
	return fmt.Sprintf("learning %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *LearningError) Unwrap() error {
	return e.Err
}

// wrapError wraps err with the operation unless it is one of the package's
// sentinel errors, which callers match with errors.Is.
func wrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoActiveCycle) ||
		errors.Is(err, ErrNoWords) ||
		errors.Is(err, ErrCycleNotOwned) ||
		errors.Is(err, ErrCycleWordNotFound) {
		return err
	}
	return &LearningError{Operation: operation, Err: err}
}
