package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
)

// WordStore defines the interface for dictionary word persistence.
// Words are shared across users learning the same language pair; the
// per-user learning state lives in UserWordStore.
type WordStore interface {
	// Create saves a new word to the store.
	// Returns ErrWordExists if a word with the same text already exists
	// for the language pair.
	// Returns validation errors from the domain Word if data is invalid.
	Create(ctx context.Context, word *domain.Word) error

	// GetByID retrieves a word by its unique ID.
	// Returns ErrWordNotFound if the word does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error)

	// GetByText retrieves a word by its text within a language pair.
	// The lookup is case-insensitive. Returns ErrWordNotFound if no such
	// word exists.
	GetByText(ctx context.Context, text, languagePair string) (*domain.Word, error)

	// GetByIDs retrieves multiple words at once. The result omits IDs
	// that do not exist; callers that care must compare lengths.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Word, error)

	// Update modifies an existing word. Used by enrichment to fill in
	// translation, transcription and media references.
	// Returns ErrWordNotFound if the word does not exist.
	Update(ctx context.Context, word *domain.Word) error

	// Delete removes a word and its examples from the store. Called when
	// the last user drops the word from their dictionary.
	// Returns ErrWordNotFound if the word does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of dictionary words.
	Count(ctx context.Context) (int, error)

	// CountReferences returns how many users currently have the word in
	// their dictionary. Used to detect orphaned words before deletion.
	CountReferences(ctx context.Context, id uuid.UUID) (int, error)

	// CreateExamples saves usage examples for a word.
	// All examples must be valid according to domain validation rules.
	CreateExamples(ctx context.Context, examples []*domain.WordExample) error

	// GetExamples retrieves all usage examples attached to a word,
	// oldest first. Returns an empty slice when the word has none.
	GetExamples(ctx context.Context, wordID uuid.UUID) ([]*domain.WordExample, error)

	// WithTx returns a new WordStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) WordStore
}
