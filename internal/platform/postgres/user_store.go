package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/store"
)

// userColumns is the canonical column list for reading users. Keep in
// sync with scanUser.
const userColumns = `id, email, hashed_password, native_language, target_language,
	daily_goal_minutes, daily_goal_words, day_start_hour,
	notification_hour, notifications_enabled, last_notification_at,
	words_added_at, admin, created_at, updated_at`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
// Password hashing happens here so plaintext passwords never cross the
// store boundary.
type PostgresUserStore struct {
	db         store.DBTX
	bcryptCost int
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection or transaction that should be initialized and managed
// by the caller. Costs outside bcrypt's supported range fall back to bcrypt.DefaultCost.
func NewPostgresUserStore(db store.DBTX, bcryptCost int) *PostgresUserStore {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &PostgresUserStore{
		db:         db,
		bcryptCost: bcryptCost,
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// DB returns the underlying database connection or transaction.
// Used by callers that need to compose this store with others in a
// single transaction.
func (s *PostgresUserStore) DB() store.DBTX {
	return s.db
}

// WithTx implements store.UserStore.WithTx
// It returns a new UserStore instance backed by the given transaction.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:         tx,
		bcryptCost: s.bcryptCost,
	}
}

// hashPassword hashes a plaintext password using bcrypt.
func (s *PostgresUserStore) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Create implements store.UserStore.Create
// It validates the user, hashes the plaintext password, and inserts the
// row. The plaintext password is cleared from the struct once hashed.
// Returns store.ErrEmailExists if the email is already taken.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			"error", err,
			"user_id", user.ID)
		return err
	}

	if user.Password != "" {
		hashed, err := s.hashPassword(user.Password)
		if err != nil {
			log.Error("failed to hash password during user creation",
				"error", err,
				"user_id", user.ID)
			return err
		}
		user.HashedPassword = hashed
		user.Password = "" // Plaintext must not outlive hashing
	}

	query := `
		INSERT INTO users (id, email, hashed_password, native_language, target_language,
			daily_goal_minutes, daily_goal_words, day_start_hour,
			notification_hour, notifications_enabled, last_notification_at,
			words_added_at, admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.NativeLanguage,
		user.TargetLanguage,
		user.DailyGoalMinutes,
		user.DailyGoalWords,
		user.DayStartHour,
		user.NotificationHour,
		user.NotificationsEnabled,
		nullTime(user.LastNotificationAt),
		nullTime(user.WordsAddedAt),
		user.Admin,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("attempted to create user with duplicate email",
				"user_id", user.ID)
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			"error", err,
			"user_id", user.ID)
		return MapError(err)
	}

	log.Info("user created successfully", "user_id", user.ID)
	return nil
}

// GetByID implements store.UserStore.GetByID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContext(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", "user_id", id)
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			"error", err,
			"user_id", id)
		return nil, MapError(err)
	}

	return user, nil
}

// GetByEmail implements store.UserStore.GetByEmail
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContext(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	row := s.db.QueryRowContext(ctx, query, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found by email")
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by email", "error", err)
		return nil, MapError(err)
	}

	return user, nil
}

// Update implements store.UserStore.Update
// If a plaintext Password is set, it is hashed and the stored hash is
// replaced. Returns store.ErrUserNotFound if the user does not exist
// and store.ErrEmailExists when updating to a taken email.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during update",
			"error", err,
			"user_id", user.ID)
		return err
	}

	if user.Password != "" {
		hashed, err := s.hashPassword(user.Password)
		if err != nil {
			log.Error("failed to hash password during user update",
				"error", err,
				"user_id", user.ID)
			return err
		}
		user.HashedPassword = hashed
		user.Password = ""
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, hashed_password = $2, native_language = $3,
			target_language = $4, daily_goal_minutes = $5, daily_goal_words = $6,
			day_start_hour = $7, notification_hour = $8, notifications_enabled = $9,
			last_notification_at = $10, words_added_at = $11, admin = $12, updated_at = $13
		WHERE id = $14
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		user.Email,
		user.HashedPassword,
		user.NativeLanguage,
		user.TargetLanguage,
		user.DailyGoalMinutes,
		user.DailyGoalWords,
		user.DayStartHour,
		user.NotificationHour,
		user.NotificationsEnabled,
		nullTime(user.LastNotificationAt),
		nullTime(user.WordsAddedAt),
		user.Admin,
		user.UpdatedAt,
		user.ID,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("attempted to update user to duplicate email",
				"user_id", user.ID)
			return store.ErrEmailExists
		}
		log.Error("failed to update user",
			"error", err,
			"user_id", user.ID)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user"); err != nil {
		log.Debug("user not found for update", "user_id", user.ID)
		return store.ErrUserNotFound
	}

	log.Info("user updated successfully", "user_id", user.ID)
	return nil
}

// Delete implements store.UserStore.Delete
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			"error", err,
			"user_id", id)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user"); err != nil {
		log.Debug("user not found for delete", "user_id", id)
		return store.ErrUserNotFound
	}

	log.Info("user deleted successfully", "user_id", id)
	return nil
}

// SetWordsAddedAt implements store.UserStore.SetWordsAddedAt
func (s *PostgresUserStore) SetWordsAddedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContext(ctx)

	query := `UPDATE users SET words_added_at = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, nullTime(at), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set words added timestamp",
			"error", err,
			"user_id", id)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user"); err != nil {
		return store.ErrUserNotFound
	}

	return nil
}

// SetLastNotificationAt implements store.UserStore.SetLastNotificationAt
func (s *PostgresUserStore) SetLastNotificationAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContext(ctx)

	query := `UPDATE users SET last_notification_at = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, nullTime(at), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set last notification timestamp",
			"error", err,
			"user_id", id)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user"); err != nil {
		return store.ErrUserNotFound
	}

	return nil
}

// Count implements store.UserStore.Count
func (s *PostgresUserStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// ListNotifiable implements store.UserStore.ListNotifiable
func (s *PostgresUserStore) ListNotifiable(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE notifications_enabled = TRUE`
	return s.queryUsers(ctx, query)
}

// ListForNotificationHour implements store.UserStore.ListForNotificationHour
func (s *PostgresUserStore) ListForNotificationHour(ctx context.Context, hour int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE notifications_enabled = TRUE AND notification_hour = $1`
	return s.queryUsers(ctx, query, hour)
}

// queryUsers runs a query returning full user rows and scans them all.
func (s *PostgresUserStore) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query users", "error", err)
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "error", err)
		}
	}()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Error("failed to scan user row", "error", err)
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning user rows", "error", err)
		return nil, err
	}

	return users, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one user row in userColumns order.
func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var lastNotificationAt, wordsAddedAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.NativeLanguage,
		&user.TargetLanguage,
		&user.DailyGoalMinutes,
		&user.DailyGoalWords,
		&user.DayStartHour,
		&user.NotificationHour,
		&user.NotificationsEnabled,
		&lastNotificationAt,
		&wordsAddedAt,
		&user.Admin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.LastNotificationAt = timeFromNull(lastNotificationAt)
	user.WordsAddedAt = timeFromNull(wordsAddedAt)
	return &user, nil
}
