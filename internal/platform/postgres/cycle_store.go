package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/store"
)

// cycleColumns is the canonical column list for reading learning
// cycles. Keep in sync with scanCycle.
const cycleColumns = `id, user_id, started_at, completed_at, completed,
	words_learned, time_spent, created_at, updated_at`

// PostgresCycleStore implements the store.CycleStore interface
// using a PostgreSQL database as the storage backend. It covers both
// learning cycles and their word memberships.
type PostgresCycleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCycleStore creates a new PostgreSQL implementation of the CycleStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCycleStore(db store.DBTX, logger *slog.Logger) *PostgresCycleStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCycleStore{
		db:     db,
		logger: logger.With(slog.String("component", "cycle_store")),
	}
}

// Ensure PostgresCycleStore implements store.CycleStore interface
var _ store.CycleStore = (*PostgresCycleStore)(nil)

// WithTx implements store.CycleStore.WithTx
func (s *PostgresCycleStore) WithTx(tx *sql.Tx) store.CycleStore {
	return &PostgresCycleStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CycleStore.Create
// Returns store.ErrInvalidEntity when the user does not exist.
func (s *PostgresCycleStore) Create(ctx context.Context, cycle *domain.LearningCycle) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cycle.Validate(); err != nil {
		log.Warn("cycle validation failed during create",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycle.ID.String()))
		return err
	}

	query := `
		INSERT INTO learning_cycles (id, user_id, started_at, completed_at, completed,
			words_learned, time_spent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		cycle.ID,
		cycle.UserID,
		cycle.StartedAt,
		nullTime(cycle.CompletedAt),
		cycle.Completed,
		cycle.WordsLearned,
		cycle.TimeSpent,
		cycle.CreatedAt,
		cycle.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during cycle creation",
				slog.String("cycle_id", cycle.ID.String()),
				slog.String("user_id", cycle.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, cycle.UserID)
		}
		log.Error("failed to create cycle",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycle.ID.String()))
		return MapError(err)
	}

	log.Info("cycle created successfully",
		slog.String("cycle_id", cycle.ID.String()),
		slog.String("user_id", cycle.UserID.String()))
	return nil
}

// GetByID implements store.CycleStore.GetByID
// Returns store.ErrCycleNotFound if the cycle does not exist.
func (s *PostgresCycleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningCycle, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cycleColumns + ` FROM learning_cycles WHERE id = $1`
	cycle, err := scanCycle(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCycleNotFound
		}
		log.Error("failed to get cycle by ID",
			slog.String("error", err.Error()),
			slog.String("cycle_id", id.String()))
		return nil, MapError(err)
	}

	return cycle, nil
}

// GetActive implements store.CycleStore.GetActive
// The user's newest incomplete cycle. Returns store.ErrCycleNotFound
// when no cycle is open.
func (s *PostgresCycleStore) GetActive(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + cycleColumns + `
		FROM learning_cycles
		WHERE user_id = $1 AND completed = FALSE
		ORDER BY started_at DESC
		LIMIT 1
	`
	cycle, err := scanCycle(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no active cycle", slog.String("user_id", userID.String()))
			return nil, store.ErrCycleNotFound
		}
		log.Error("failed to get active cycle",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return cycle, nil
}

// Update implements store.CycleStore.Update
// Returns store.ErrCycleNotFound if the cycle does not exist.
func (s *PostgresCycleStore) Update(ctx context.Context, cycle *domain.LearningCycle) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cycle.Validate(); err != nil {
		log.Warn("cycle validation failed during update",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycle.ID.String()))
		return err
	}

	cycle.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE learning_cycles
		SET completed_at = $1, completed = $2, words_learned = $3,
			time_spent = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		nullTime(cycle.CompletedAt),
		cycle.Completed,
		cycle.WordsLearned,
		cycle.TimeSpent,
		cycle.UpdatedAt,
		cycle.ID,
	)

	if err != nil {
		log.Error("failed to update cycle",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycle.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "cycle"); err != nil {
		return store.ErrCycleNotFound
	}

	return nil
}

// CreateWords implements store.CycleStore.CreateWords
// Run within a transaction together with Create so a cycle is never
// stored half-populated.
func (s *PostgresCycleStore) CreateWords(ctx context.Context, cycleWords []*domain.CycleWord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, cycleWord := range cycleWords {
		if err := cycleWord.Validate(); err != nil {
			log.Warn("cycle word validation failed during create",
				slog.String("error", err.Error()),
				slog.String("cycle_word_id", cycleWord.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO cycle_words (id, cycle_id, user_word_id, learned, time_spent,
			progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, cycleWord := range cycleWords {
		_, err := s.db.ExecContext(
			ctx,
			query,
			cycleWord.ID,
			cycleWord.CycleID,
			cycleWord.UserWordID,
			cycleWord.Learned,
			cycleWord.TimeSpent,
			nullJSON(cycleWord.Progress),
			cycleWord.CreatedAt,
			cycleWord.UpdatedAt,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				log.Warn("foreign key violation during cycle word creation",
					slog.String("cycle_word_id", cycleWord.ID.String()),
					slog.String("cycle_id", cycleWord.CycleID.String()))
				return fmt.Errorf("%w: cycle or user word does not exist",
					store.ErrInvalidEntity)
			}
			log.Error("failed to create cycle word",
				slog.String("error", err.Error()),
				slog.String("cycle_word_id", cycleWord.ID.String()))
			return MapError(err)
		}
	}

	log.Debug("cycle words created", slog.Int("count", len(cycleWords)))
	return nil
}

// GetWords implements store.CycleStore.GetWords
// All memberships of a cycle in insertion order.
func (s *PostgresCycleStore) GetWords(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error) {
	query := `
		SELECT id, cycle_id, user_word_id, learned, time_spent, progress, created_at, updated_at
		FROM cycle_words
		WHERE cycle_id = $1
		ORDER BY created_at ASC
	`
	return s.queryCycleWords(ctx, query, cycleID)
}

// GetUnlearnedWords implements store.CycleStore.GetUnlearnedWords
// An empty result means every word is learned and the cycle can close.
func (s *PostgresCycleStore) GetUnlearnedWords(ctx context.Context, cycleID uuid.UUID) ([]*domain.CycleWord, error) {
	query := `
		SELECT id, cycle_id, user_word_id, learned, time_spent, progress, created_at, updated_at
		FROM cycle_words
		WHERE cycle_id = $1 AND learned = FALSE
		ORDER BY created_at ASC
	`
	return s.queryCycleWords(ctx, query, cycleID)
}

// GetWordByUserWord implements store.CycleStore.GetWordByUserWord
// Returns store.ErrCycleWordNotFound if the word is not in the cycle.
func (s *PostgresCycleStore) GetWordByUserWord(
	ctx context.Context,
	cycleID, userWordID uuid.UUID,
) (*domain.CycleWord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, cycle_id, user_word_id, learned, time_spent, progress, created_at, updated_at
		FROM cycle_words
		WHERE cycle_id = $1 AND user_word_id = $2
	`
	cycleWord, err := scanCycleWord(s.db.QueryRowContext(ctx, query, cycleID, userWordID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCycleWordNotFound
		}
		log.Error("failed to get cycle word",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycleID.String()))
		return nil, MapError(err)
	}

	return cycleWord, nil
}

// UpdateWord implements store.CycleStore.UpdateWord
// Returns store.ErrCycleWordNotFound if it does not exist.
func (s *PostgresCycleStore) UpdateWord(ctx context.Context, cycleWord *domain.CycleWord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cycleWord.Validate(); err != nil {
		log.Warn("cycle word validation failed during update",
			slog.String("error", err.Error()),
			slog.String("cycle_word_id", cycleWord.ID.String()))
		return err
	}

	cycleWord.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE cycle_words
		SET learned = $1, time_spent = $2, progress = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		cycleWord.Learned,
		cycleWord.TimeSpent,
		nullJSON(cycleWord.Progress),
		cycleWord.UpdatedAt,
		cycleWord.ID,
	)

	if err != nil {
		log.Error("failed to update cycle word",
			slog.String("error", err.Error()),
			slog.String("cycle_word_id", cycleWord.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "cycle word"); err != nil {
		return store.ErrCycleWordNotFound
	}

	return nil
}

// SaveProgress implements store.CycleStore.SaveProgress
// Updates only the progress column; runs after every training action.
// Returns store.ErrCycleWordNotFound if it does not exist.
func (s *PostgresCycleStore) SaveProgress(
	ctx context.Context,
	cycleWordID uuid.UUID,
	progress json.RawMessage,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE cycle_words SET progress = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, nullJSON(progress), time.Now().UTC(), cycleWordID)
	if err != nil {
		log.Error("failed to save training progress",
			slog.String("error", err.Error()),
			slog.String("cycle_word_id", cycleWordID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "cycle word"); err != nil {
		return store.ErrCycleWordNotFound
	}

	return nil
}

// ClearProgress implements store.CycleStore.ClearProgress
// Wipes the training progress of every word in the cycle. A cycle with
// no progress rows is not an error.
func (s *PostgresCycleStore) ClearProgress(ctx context.Context, cycleID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE cycle_words SET progress = NULL, updated_at = $1 WHERE cycle_id = $2`
	_, err := s.db.ExecContext(ctx, query, time.Now().UTC(), cycleID)
	if err != nil {
		log.Error("failed to clear training progress",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycleID.String()))
		return MapError(err)
	}

	log.Debug("training progress cleared", slog.String("cycle_id", cycleID.String()))
	return nil
}

// ListCompletedSince implements store.CycleStore.ListCompletedSince
// The user's cycles completed at or after the given time, newest first.
func (s *PostgresCycleStore) ListCompletedSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]*domain.LearningCycle, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + cycleColumns + `
		FROM learning_cycles
		WHERE user_id = $1 AND completed = TRUE AND completed_at >= $2
		ORDER BY completed_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		log.Error("failed to query completed cycles",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cycles := []*domain.LearningCycle{}
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			log.Error("failed to scan cycle row", slog.String("error", err.Error()))
			return nil, err
		}
		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning cycle rows", slog.String("error", err.Error()))
		return nil, err
	}

	return cycles, nil
}

// CountCompletedSince implements store.CycleStore.CountCompletedSince
func (s *PostgresCycleStore) CountCompletedSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM learning_cycles
		WHERE user_id = $1 AND completed = TRUE AND completed_at >= $2
	`
	var count int
	err := s.db.QueryRowContext(ctx, query, userID, since).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// queryCycleWords runs a query returning full cycle word rows and scans them all.
func (s *PostgresCycleStore) queryCycleWords(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.CycleWord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cycle words", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cycleWords := []*domain.CycleWord{}
	for rows.Next() {
		cycleWord, err := scanCycleWord(rows)
		if err != nil {
			log.Error("failed to scan cycle word row", slog.String("error", err.Error()))
			return nil, err
		}
		cycleWords = append(cycleWords, cycleWord)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning cycle word rows", slog.String("error", err.Error()))
		return nil, err
	}

	return cycleWords, nil
}

// scanCycle reads one cycle row in cycleColumns order.
func scanCycle(row rowScanner) (*domain.LearningCycle, error) {
	var cycle domain.LearningCycle
	var completedAt sql.NullTime

	err := row.Scan(
		&cycle.ID,
		&cycle.UserID,
		&cycle.StartedAt,
		&completedAt,
		&cycle.Completed,
		&cycle.WordsLearned,
		&cycle.TimeSpent,
		&cycle.CreatedAt,
		&cycle.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cycle.CompletedAt = timeFromNull(completedAt)
	return &cycle, nil
}

// scanCycleWord reads one cycle word row.
func scanCycleWord(row rowScanner) (*domain.CycleWord, error) {
	var cycleWord domain.CycleWord
	var progress []byte

	err := row.Scan(
		&cycleWord.ID,
		&cycleWord.CycleID,
		&cycleWord.UserWordID,
		&cycleWord.Learned,
		&cycleWord.TimeSpent,
		&progress,
		&cycleWord.CreatedAt,
		&cycleWord.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(progress) > 0 {
		cycleWord.Progress = json.RawMessage(progress)
	}
	return &cycleWord, nil
}
