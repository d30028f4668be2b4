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

// userWordColumns is the canonical column list for reading user words.
// Keep in sync with scanUserWord. The uw alias matters for the joined
// selection queries.
const userWordColumns = `uw.id, uw.user_id, uw.word_id, uw.priority, uw.learned,
	uw.last_reviewed_at, uw.next_review_at, uw.review_stage, uw.created_at, uw.updated_at`

// PostgresUserWordStore implements the store.UserWordStore interface
// using a PostgreSQL database as the storage backend. Besides plain
// CRUD it hosts the joined queries that feed cycle word selection.
type PostgresUserWordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserWordStore creates a new PostgreSQL implementation of the UserWordStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserWordStore(db store.DBTX, logger *slog.Logger) *PostgresUserWordStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserWordStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_word_store")),
	}
}

// Ensure PostgresUserWordStore implements store.UserWordStore interface
var _ store.UserWordStore = (*PostgresUserWordStore)(nil)

// WithTx implements store.UserWordStore.WithTx
func (s *PostgresUserWordStore) WithTx(tx *sql.Tx) store.UserWordStore {
	return &PostgresUserWordStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.UserWordStore.Create
// Returns store.ErrUserWordExists if the user already has this word and
// store.ErrInvalidEntity when the user or word does not exist.
func (s *PostgresUserWordStore) Create(ctx context.Context, userWord *domain.UserWord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := userWord.Validate(); err != nil {
		log.Warn("user word validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_word_id", userWord.ID.String()))
		return err
	}

	query := `
		INSERT INTO user_words (id, user_id, word_id, priority, learned,
			last_reviewed_at, next_review_at, review_stage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		userWord.ID,
		userWord.UserID,
		userWord.WordID,
		userWord.Priority,
		userWord.Learned,
		nullTime(userWord.LastReviewedAt),
		nullTime(userWord.NextReviewAt),
		userWord.ReviewStage,
		userWord.CreatedAt,
		userWord.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("user already has this word",
				slog.String("user_id", userWord.UserID.String()),
				slog.String("word_id", userWord.WordID.String()))
			return store.ErrUserWordExists
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during user word creation",
				slog.String("user_id", userWord.UserID.String()),
				slog.String("word_id", userWord.WordID.String()))
			return fmt.Errorf("%w: user or word does not exist", store.ErrInvalidEntity)
		}
		log.Error("failed to create user word",
			slog.String("error", err.Error()),
			slog.String("user_word_id", userWord.ID.String()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.UserWordStore.GetByID
// Returns store.ErrUserWordNotFound if it does not exist.
func (s *PostgresUserWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserWord, error) {
	query := `SELECT ` + userWordColumns + ` FROM user_words uw WHERE uw.id = $1`
	return s.getOne(ctx, query, id)
}

// GetByUserAndWord implements store.UserWordStore.GetByUserAndWord
// Returns store.ErrUserWordNotFound if the user does not have the word.
func (s *PostgresUserWordStore) GetByUserAndWord(ctx context.Context, userID, wordID uuid.UUID) (*domain.UserWord, error) {
	query := `SELECT ` + userWordColumns + `
		FROM user_words uw
		WHERE uw.user_id = $1 AND uw.word_id = $2`
	return s.getOne(ctx, query, userID, wordID)
}

// getOne runs a single-row user word query and maps the not-found case.
func (s *PostgresUserWordStore) getOne(ctx context.Context, query string, args ...any) (*domain.UserWord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userWord, err := scanUserWord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserWordNotFound
		}
		log.Error("failed to get user word", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return userWord, nil
}

// Update implements store.UserWordStore.Update
// Returns store.ErrUserWordNotFound if it does not exist.
func (s *PostgresUserWordStore) Update(ctx context.Context, userWord *domain.UserWord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := userWord.Validate(); err != nil {
		log.Warn("user word validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_word_id", userWord.ID.String()))
		return err
	}

	userWord.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE user_words
		SET priority = $1, learned = $2, last_reviewed_at = $3,
			next_review_at = $4, review_stage = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		userWord.Priority,
		userWord.Learned,
		nullTime(userWord.LastReviewedAt),
		nullTime(userWord.NextReviewAt),
		userWord.ReviewStage,
		userWord.UpdatedAt,
		userWord.ID,
	)

	if err != nil {
		log.Error("failed to update user word",
			slog.String("error", err.Error()),
			slog.String("user_word_id", userWord.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user word"); err != nil {
		return store.ErrUserWordNotFound
	}

	return nil
}

// Delete implements store.UserWordStore.Delete
// Returns store.ErrUserWordNotFound if it does not exist.
func (s *PostgresUserWordStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM user_words WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user word",
			slog.String("error", err.Error()),
			slog.String("user_word_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user word"); err != nil {
		return store.ErrUserWordNotFound
	}

	return nil
}

// ListByUser implements store.UserWordStore.ListByUser
// Results come back newest first. Filter fields are optional.
func (s *PostgresUserWordStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.UserWordFilter,
) ([]*domain.UserWord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + userWordColumns + ` FROM user_words uw WHERE uw.user_id = $1`)
	args := []any{userID}

	if filter.Learned != nil {
		args = append(args, *filter.Learned)
		fmt.Fprintf(&sb, " AND uw.learned = $%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		fmt.Fprintf(&sb, " AND uw.priority = $%d", len(args))
	}

	sb.WriteString(" ORDER BY uw.created_at DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return s.queryUserWords(ctx, sb.String(), args...)
}

// Search implements store.UserWordStore.Search
// Matches the query against word text and translation, case-insensitively.
func (s *PostgresUserWordStore) Search(
	ctx context.Context,
	userID uuid.UUID,
	query string,
	limit int,
) ([]*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20 // Default limit
	}

	sqlQuery := `
		SELECT ` + joinedWordColumns + `
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1
			AND (w.text ILIKE '%' || $2 || '%' OR w.translation ILIKE '%' || $2 || '%')
		ORDER BY w.text ASC
		LIMIT $3
	`
	return queryWords(ctx, s.db, log, sqlQuery, userID, query, limit)
}

// CountByUser implements store.UserWordStore.CountByUser
func (s *PostgresUserWordStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM user_words WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// CountLearnedByUser implements store.UserWordStore.CountLearnedByUser
func (s *PostgresUserWordStore) CountLearnedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM user_words WHERE user_id = $1 AND learned = TRUE`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// ListReviewCandidates implements store.UserWordStore.ListReviewCandidates
// Learned words that are due at the given time, highest priority first.
// Parked words (priority 0) and words whose dictionary entry is not
// enriched yet never qualify.
func (s *PostgresUserWordStore) ListReviewCandidates(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) ([]*domain.UserWord, error) {
	query := `
		SELECT ` + userWordColumns + `
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1
			AND uw.learned = TRUE
			AND uw.priority > 0
			AND uw.next_review_at IS NOT NULL
			AND uw.next_review_at <= $2
			AND w.translation <> ''
		ORDER BY uw.priority DESC, uw.next_review_at ASC
	`
	return s.queryUserWords(ctx, query, userID, now)
}

// ListNewCandidates implements store.UserWordStore.ListNewCandidates
// Words the user has not learned yet, highest priority first. Parked words
// and unenriched words are excluded so a cycle never holds a word with no
// content.
func (s *PostgresUserWordStore) ListNewCandidates(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.UserWord, error) {
	query := `
		SELECT ` + userWordColumns + `
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1
			AND uw.learned = FALSE
			AND uw.priority > 0
			AND w.translation <> ''
		ORDER BY uw.priority DESC, uw.created_at ASC
	`
	return s.queryUserWords(ctx, query, userID)
}

// CountDue implements store.UserWordStore.CountDue
func (s *PostgresUserWordStore) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1
			AND uw.learned = TRUE
			AND uw.priority > 0
			AND uw.next_review_at IS NOT NULL
			AND uw.next_review_at <= $2
			AND w.translation <> ''
	`
	var count int
	err := s.db.QueryRowContext(ctx, query, userID, now).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// ListDueWords implements store.UserWordStore.ListDueWords
// The dictionary words behind the user's due reviews, highest priority
// first, capped at limit.
func (s *PostgresUserWordStore) ListDueWords(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 5 // Default limit
	}

	query := `
		SELECT ` + joinedWordColumns + `
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1
			AND uw.learned = TRUE
			AND uw.priority > 0
			AND uw.next_review_at IS NOT NULL
			AND uw.next_review_at <= $2
			AND w.translation <> ''
		ORDER BY uw.priority DESC, uw.next_review_at ASC
		LIMIT $3
	`
	return queryWords(ctx, s.db, log, query, userID, now, limit)
}

// DistinctPriorities implements store.UserWordStore.DistinctPriorities
// Distinct priority values present in the user's dictionary, highest first.
func (s *PostgresUserWordStore) DistinctPriorities(ctx context.Context, userID uuid.UUID) ([]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT DISTINCT priority
		FROM user_words
		WHERE user_id = $1
		ORDER BY priority DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query distinct priorities",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	priorities := []int{}
	for rows.Next() {
		var priority int
		if err := rows.Scan(&priority); err != nil {
			log.Error("failed to scan priority row", slog.String("error", err.Error()))
			return nil, err
		}
		priorities = append(priorities, priority)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning priority rows", slog.String("error", err.Error()))
		return nil, err
	}

	return priorities, nil
}

// DecreasePriorities implements store.UserWordStore.DecreasePriorities
// Every user word at any of the given priorities is lowered by one.
// Returns how many words were updated.
func (s *PostgresUserWordStore) DecreasePriorities(
	ctx context.Context,
	userID uuid.UUID,
	priorities []int,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(priorities) == 0 {
		return 0, nil
	}

	args := []any{userID, time.Now().UTC()}
	placeholders := make([]string, len(priorities))
	for i, priority := range priorities {
		args = append(args, priority)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	query := `
		UPDATE user_words
		SET priority = priority - 1, updated_at = $2
		WHERE user_id = $1 AND priority IN (` + strings.Join(placeholders, ", ") + `)`

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to decrease priorities",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Debug("priorities decreased",
		slog.String("user_id", userID.String()),
		slog.Int("words_updated", int(rowsAffected)))
	return int(rowsAffected), nil
}

// GetRandomWords implements store.UserWordStore.GetRandomWords
// Up to count random enriched words from the user's dictionary,
// excluding the given word. Feeds wrong answers for multiple choice.
func (s *PostgresUserWordStore) GetRandomWords(
	ctx context.Context,
	userID uuid.UUID,
	count int,
	excludeWordID uuid.UUID,
) ([]*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if count <= 0 {
		return []*domain.Word{}, nil
	}

	query := `
		SELECT ` + joinedWordColumns + `
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1
			AND w.id <> $2
			AND w.translation <> ''
		ORDER BY RANDOM()
		LIMIT $3
	`
	return queryWords(ctx, s.db, log, query, userID, excludeWordID, count)
}

// queryUserWords runs a query returning full user word rows and scans them all.
func (s *PostgresUserWordStore) queryUserWords(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.UserWord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query user words", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	userWords := []*domain.UserWord{}
	for rows.Next() {
		userWord, err := scanUserWord(rows)
		if err != nil {
			log.Error("failed to scan user word row", slog.String("error", err.Error()))
			return nil, err
		}
		userWords = append(userWords, userWord)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning user word rows", slog.String("error", err.Error()))
		return nil, err
	}

	return userWords, nil
}

// scanUserWord reads one user word row in userWordColumns order.
func scanUserWord(row rowScanner) (*domain.UserWord, error) {
	var userWord domain.UserWord
	var lastReviewedAt, nextReviewAt sql.NullTime

	err := row.Scan(
		&userWord.ID,
		&userWord.UserID,
		&userWord.WordID,
		&userWord.Priority,
		&userWord.Learned,
		&lastReviewedAt,
		&nextReviewAt,
		&userWord.ReviewStage,
		&userWord.CreatedAt,
		&userWord.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	userWord.LastReviewedAt = timeFromNull(lastReviewedAt)
	userWord.NextReviewAt = timeFromNull(nextReviewAt)
	return &userWord, nil
}
