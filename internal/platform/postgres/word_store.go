package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/store"
)

// wordColumns is the canonical column list for reading words. Keep in
// sync with scanWord. joinedWordColumns is the same list under the w
// alias for queries that join through user_words.
const (
	wordColumns = `id, text, translation, transcription, pronunciation_file,
	image_file, language_pair, created_at, updated_at`

	joinedWordColumns = `w.id, w.text, w.translation, w.transcription, w.pronunciation_file,
	w.image_file, w.language_pair, w.created_at, w.updated_at`
)

// PostgresWordStore implements the store.WordStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWordStore creates a new PostgreSQL implementation of the WordStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresWordStore(db store.DBTX, logger *slog.Logger) *PostgresWordStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWordStore{
		db:     db,
		logger: logger.With(slog.String("component", "word_store")),
	}
}

// Ensure PostgresWordStore implements store.WordStore interface
var _ store.WordStore = (*PostgresWordStore)(nil)

// WithTx implements store.WordStore.WithTx
func (s *PostgresWordStore) WithTx(tx *sql.Tx) store.WordStore {
	return &PostgresWordStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.WordStore.Create
// Returns store.ErrWordExists if the word already exists for the
// language pair.
func (s *PostgresWordStore) Create(ctx context.Context, word *domain.Word) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := word.Validate(); err != nil {
		log.Warn("word validation failed during create",
			slog.String("error", err.Error()),
			slog.String("word_id", word.ID.String()))
		return err
	}

	query := `
		INSERT INTO words (id, text, translation, transcription, pronunciation_file,
			image_file, language_pair, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		word.ID,
		word.Text,
		word.Translation,
		word.Transcription,
		word.PronunciationFile,
		word.ImageFile,
		word.LanguagePair,
		word.CreatedAt,
		word.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("word already exists",
				slog.String("word_id", word.ID.String()),
				slog.String("language_pair", word.LanguagePair))
			return store.ErrWordExists
		}
		log.Error("failed to create word",
			slog.String("error", err.Error()),
			slog.String("word_id", word.ID.String()))
		return MapError(err)
	}

	log.Debug("word created successfully",
		slog.String("word_id", word.ID.String()),
		slog.String("language_pair", word.LanguagePair))
	return nil
}

// GetByID implements store.WordStore.GetByID
// Returns store.ErrWordNotFound if the word does not exist.
func (s *PostgresWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + wordColumns + ` FROM words WHERE id = $1`
	word, err := scanWord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordNotFound
		}
		log.Error("failed to get word by ID",
			slog.String("error", err.Error()),
			slog.String("word_id", id.String()))
		return nil, MapError(err)
	}

	return word, nil
}

// GetByText implements store.WordStore.GetByText
// The lookup is case-insensitive within the language pair.
// Returns store.ErrWordNotFound if no such word exists.
func (s *PostgresWordStore) GetByText(ctx context.Context, text, languagePair string) (*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + wordColumns + `
		FROM words
		WHERE LOWER(text) = LOWER($1) AND language_pair = $2`
	word, err := scanWord(s.db.QueryRowContext(ctx, query, text, languagePair))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordNotFound
		}
		log.Error("failed to get word by text",
			slog.String("error", err.Error()),
			slog.String("language_pair", languagePair))
		return nil, MapError(err)
	}

	return word, nil
}

// GetByIDs implements store.WordStore.GetByIDs
// IDs with no matching word are silently omitted from the result.
func (s *PostgresWordStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Word, error) {
	if len(ids) == 0 {
		return []*domain.Word{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + wordColumns + `
		FROM words
		WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	return queryWords(ctx, s.db, logger.FromContextOrDefault(ctx, s.logger), query, args...)
}

// Update implements store.WordStore.Update
// Returns store.ErrWordNotFound if the word does not exist.
func (s *PostgresWordStore) Update(ctx context.Context, word *domain.Word) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := word.Validate(); err != nil {
		log.Warn("word validation failed during update",
			slog.String("error", err.Error()),
			slog.String("word_id", word.ID.String()))
		return err
	}

	word.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE words
		SET text = $1, translation = $2, transcription = $3,
			pronunciation_file = $4, image_file = $5, language_pair = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		word.Text,
		word.Translation,
		word.Transcription,
		word.PronunciationFile,
		word.ImageFile,
		word.LanguagePair,
		word.UpdatedAt,
		word.ID,
	)

	if err != nil {
		log.Error("failed to update word",
			slog.String("error", err.Error()),
			slog.String("word_id", word.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "word"); err != nil {
		return store.ErrWordNotFound
	}

	log.Debug("word updated successfully", slog.String("word_id", word.ID.String()))
	return nil
}

// Delete implements store.WordStore.Delete
// Examples attached to the word are removed by the database cascade.
// Returns store.ErrWordNotFound if the word does not exist.
func (s *PostgresWordStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete word",
			slog.String("error", err.Error()),
			slog.String("word_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "word"); err != nil {
		return store.ErrWordNotFound
	}

	log.Debug("word deleted successfully", slog.String("word_id", id.String()))
	return nil
}

// Count implements store.WordStore.Count
func (s *PostgresWordStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// CountReferences implements store.WordStore.CountReferences
func (s *PostgresWordStore) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM user_words WHERE word_id = $1`,
		id,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// CreateExamples implements store.WordStore.CreateExamples
// All examples are validated before any insert happens.
func (s *PostgresWordStore) CreateExamples(ctx context.Context, examples []*domain.WordExample) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, example := range examples {
		if err := example.Validate(); err != nil {
			log.Warn("example validation failed during create",
				slog.String("error", err.Error()),
				slog.String("example_id", example.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO word_examples (id, word_id, sentence, translation, good, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, example := range examples {
		_, err := s.db.ExecContext(
			ctx,
			query,
			example.ID,
			example.WordID,
			example.Sentence,
			example.Translation,
			example.Good,
			example.CreatedAt,
			example.UpdatedAt,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				log.Warn("foreign key violation during example creation",
					slog.String("example_id", example.ID.String()),
					slog.String("word_id", example.WordID.String()))
				return fmt.Errorf("%w: word with ID %s not found",
					store.ErrInvalidEntity, example.WordID)
			}
			log.Error("failed to create word example",
				slog.String("error", err.Error()),
				slog.String("example_id", example.ID.String()))
			return MapError(err)
		}
	}

	return nil
}

// GetExamples implements store.WordStore.GetExamples
// Examples come back oldest first; an empty slice means the word has none.
func (s *PostgresWordStore) GetExamples(ctx context.Context, wordID uuid.UUID) ([]*domain.WordExample, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, word_id, sentence, translation, good, created_at, updated_at
		FROM word_examples
		WHERE word_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, wordID)
	if err != nil {
		log.Error("failed to query word examples",
			slog.String("error", err.Error()),
			slog.String("word_id", wordID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	examples := []*domain.WordExample{}
	for rows.Next() {
		var example domain.WordExample
		err := rows.Scan(
			&example.ID,
			&example.WordID,
			&example.Sentence,
			&example.Translation,
			&example.Good,
			&example.CreatedAt,
			&example.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan example row", slog.String("error", err.Error()))
			return nil, err
		}
		examples = append(examples, &example)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning example rows", slog.String("error", err.Error()))
		return nil, err
	}

	return examples, nil
}

// queryWords runs a query returning full word rows and scans them all.
// Shared by every store that reads from the words table.
func queryWords(
	ctx context.Context,
	db store.DBTX,
	log *slog.Logger,
	query string,
	args ...any,
) ([]*domain.Word, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query words", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	words := []*domain.Word{}
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			log.Error("failed to scan word row", slog.String("error", err.Error()))
			return nil, err
		}
		words = append(words, word)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning word rows", slog.String("error", err.Error()))
		return nil, err
	}

	return words, nil
}

// scanWord reads one word row in wordColumns order.
func scanWord(row rowScanner) (*domain.Word, error) {
	var word domain.Word
	err := row.Scan(
		&word.ID,
		&word.Text,
		&word.Translation,
		&word.Transcription,
		&word.PronunciationFile,
		&word.ImageFile,
		&word.LanguagePair,
		&word.CreatedAt,
		&word.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &word, nil
}
