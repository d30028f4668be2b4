package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/service/learning"
)

// Response actions a client can send back for a prompt. Multiple-choice
// options carry answer_yes/answer_no directly; free-text methods use
// answer with the typed text.
const (
	ActionAnswerYes    = "answer_yes"
	ActionAnswerNo     = "answer_no"
	ActionAnswer       = "answer"
	ActionMarkLearned  = "mark_learned"
	ActionSkip         = "skip"
	ActionDelete       = "delete"
	ActionPronounce    = "pronounce"
	ActionShowExamples = "show_examples"
)

// Common error types for the training service
var (
	// ErrNoSession indicates the user has no live training session, and no
	// active cycle to build one from.
	ErrNoSession = errors.New("no active training session")

	// ErrUnknownAction indicates the response carried an action the
	// service does not recognize.
	ErrUnknownAction = errors.New("unknown training action")

	// ErrUnexpectedAnswer indicates a free-text answer was sent for a
	// method that only takes option actions.
	ErrUnexpectedAnswer = errors.New("method does not take a text answer")
)

// Option is one selectable reply on a prompt. The client sends the action
// back verbatim; correctness of multiple-choice picks is encoded in the
// action itself.
type Option struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Prompt is one training question for one word.
type Prompt struct {
	CycleID       uuid.UUID `json:"cycle_id"`
	UserWordID    uuid.UUID `json:"user_word_id"`
	WordID        uuid.UUID `json:"word_id"`
	Method        string    `json:"method"`
	Instruction   string    `json:"instruction"`
	Question      string    `json:"question"`
	Transcription string    `json:"transcription,omitempty"`
	Options       []Option  `json:"options,omitempty"`

	// ExpectsText is set for spelling and translation prompts, which are
	// answered with the answer action instead of an option.
	ExpectsText bool `json:"expects_text"`

	// Pronunciation and Examples are attached when the user asked for
	// them on the previous response.
	Pronunciation string                `json:"pronunciation,omitempty"`
	Examples      []*domain.WordExample `json:"examples,omitempty"`

	WordsRemaining int `json:"words_remaining"`
}

// Response is the client's reply to a prompt.
type Response struct {
	Action string `json:"action" validate:"required"`
	Answer string `json:"answer,omitempty"`
}

// Result reports what a response did and what to show next. Next is nil
// exactly when the cycle completed.
type Result struct {
	Evaluated      bool    `json:"evaluated"`
	Correct        bool    `json:"correct"`
	CorrectAnswer  string  `json:"correct_answer,omitempty"`
	WordLearned    bool    `json:"word_learned"`
	WordDeleted    bool    `json:"word_deleted,omitempty"`
	CycleCompleted bool    `json:"cycle_completed"`
	Next           *Prompt `json:"next,omitempty"`
}

// Service runs training sessions.
type Service interface {
	// NextWord returns the next prompt for the user's active cycle,
	// building the session from persisted cycle state when needed.
	// Returns learning.ErrNoActiveCycle when there is no cycle to train.
	NextWord(ctx context.Context, userID uuid.UUID) (*Prompt, error)

	// Respond applies the user's reply to the current prompt and returns
	// the outcome together with the next prompt.
	Respond(ctx context.Context, userID uuid.UUID, response Response) (*Result, error)

	// EvictIdleSessions drops sessions idle longer than the configured
	// timeout and clears their persisted progress. Returns how many were
	// evicted.
	EvictIdleSessions(ctx context.Context) int
}

// CycleService is the slice of the learning service the trainer drives.
type CycleService interface {
	WordsForCycle(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, []*learning.CycleEntry, error)
	MarkWordLearned(ctx context.Context, userID, cycleID, userWordID uuid.UUID, timeSpent float64) error
	CompleteCycle(ctx context.Context, userID, cycleID uuid.UUID) error
	SaveProgress(ctx context.Context, cycleWordID uuid.UUID, progress json.RawMessage) error
	ClearProgress(ctx context.Context, cycleID uuid.UUID) error
}

// WordRemover deletes a word from the user's dictionary. The vocabulary
// service satisfies it.
type WordRemover interface {
	DeleteWord(ctx context.Context, userID, wordID uuid.UUID) error
}

// WordPool supplies the word data the trainer needs beyond the cycle
// entries: wrong options for multiple choice and example sentences.
type WordPool interface {
	GetRandomWords(ctx context.Context, userID uuid.UUID, count int, excludeWordID uuid.UUID) ([]*domain.Word, error)
}

// ExampleSource loads example sentences for a word.
type ExampleSource interface {
	GetExamples(ctx context.Context, wordID uuid.UUID) ([]*domain.WordExample, error)
}

// TrainingError wraps errors from the training service with the operation
// that produced them.
type TrainingError struct {
	// Operation is the operation that failed (e.g. "next_word").
	Operation string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface for TrainingError.
func (e *TrainingError) Error() string {
	return fmt.Sprintf("training %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TrainingError) Unwrap() error {
	return e.Err
}

// wrapError wraps err with the operation unless it is a sentinel the API
// layer matches directly.
func wrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoSession) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrUnexpectedAnswer) ||
		errors.Is(err, learning.ErrNoActiveCycle) ||
		errors.Is(err, learning.ErrNoWords) {
		return err
	}
	return &TrainingError{Operation: operation, Err: err}
}
