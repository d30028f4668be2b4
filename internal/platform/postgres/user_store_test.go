package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/store"
)

func newUserStoreMock(t *testing.T) (*PostgresUserStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// MinCost keeps the bcrypt work in these tests cheap.
	return NewPostgresUserStore(db, bcrypt.MinCost), mock
}

func storedUser() *domain.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:                   uuid.New(),
		Email:                "learner@example.com",
		HashedPassword:       "$2a$04$stored-hash",
		NativeLanguage:       "uk",
		TargetLanguage:       "en",
		DailyGoalMinutes:     10,
		DailyGoalWords:       5,
		DayStartHour:         3,
		NotificationHour:     9,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// nullableTime renders a domain timestamp the way a nullable column would:
// zero times become NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func userRows(users ...*domain.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "email", "hashed_password", "native_language", "target_language",
		"daily_goal_minutes", "daily_goal_words", "day_start_hour",
		"notification_hour", "notifications_enabled", "last_notification_at",
		"words_added_at", "admin", "created_at", "updated_at",
	})
	for _, u := range users {
		rows.AddRow(
			u.ID.String(), u.Email, u.HashedPassword, u.NativeLanguage, u.TargetLanguage,
			u.DailyGoalMinutes, u.DailyGoalWords, u.DayStartHour,
			u.NotificationHour, u.NotificationsEnabled, nullableTime(u.LastNotificationAt),
			nullableTime(u.WordsAddedAt), u.Admin, u.CreatedAt, u.UpdatedAt,
		)
	}
	return rows
}

func TestPostgresUserStore_Create(t *testing.T) {
	t.Run("hashes the password before storing", func(t *testing.T) {
		s, mock := newUserStoreMock(t)

		user := storedUser()
		user.HashedPassword = ""
		user.Password = "correct-horse-battery"

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(
				user.ID, user.Email, sqlmock.AnyArg(), user.NativeLanguage, user.TargetLanguage,
				user.DailyGoalMinutes, user.DailyGoalWords, user.DayStartHour,
				user.NotificationHour, user.NotificationsEnabled, nil,
				nil, user.Admin, user.CreatedAt, user.UpdatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := s.Create(context.Background(), user)
		require.NoError(t, err)

		assert.Empty(t, user.Password, "plaintext must be cleared after hashing")
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(user.HashedPassword), []byte("correct-horse-battery")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		s, mock := newUserStoreMock(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err := s.Create(context.Background(), storedUser())
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid user never reaches the database", func(t *testing.T) {
		s, mock := newUserStoreMock(t)

		user := storedUser()
		user.HashedPassword = ""
		user.Password = "short"

		err := s.Create(context.Background(), user)
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserStore_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, mock := newUserStoreMock(t)

		want := storedUser()
		want.WordsAddedAt = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(want.ID).
			WillReturnRows(userRows(want))

		got, err := s.GetByID(context.Background(), want.ID)
		require.NoError(t, err)

		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Email, got.Email)
		assert.Equal(t, want.NotificationHour, got.NotificationHour)
		assert.True(t, got.LastNotificationAt.IsZero(), "NULL maps to the zero time")
		assert.True(t, got.WordsAddedAt.Equal(want.WordsAddedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newUserStoreMock(t)

		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		got, err := s.GetByID(context.Background(), id)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserStore_GetByEmail(t *testing.T) {
	s, mock := newUserStoreMock(t)

	want := storedUser()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs(want.Email).
		WillReturnRows(userRows(want))

	got, err := s.GetByEmail(context.Background(), want.Email)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStore_Update_NotFound(t *testing.T) {
	s, mock := newUserStoreMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Update(context.Background(), storedUser())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStore_Delete(t *testing.T) {
	t.Run("deletes the row", func(t *testing.T) {
		s, mock := newUserStoreMock(t)

		id := uuid.New()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		s, mock := newUserStoreMock(t)

		id := uuid.New()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.Delete(context.Background(), id), store.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserStore_SetLastNotificationAt(t *testing.T) {
	s, mock := newUserStoreMock(t)

	id := uuid.New()
	at := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE users SET last_notification_at = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(at, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SetLastNotificationAt(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStore_ListForNotificationHour(t *testing.T) {
	s, mock := newUserStoreMock(t)

	first := storedUser()
	second := storedUser()
	second.Email = "second@example.com"

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE notifications_enabled = TRUE AND notification_hour = $1")).
		WithArgs(9).
		WillReturnRows(userRows(first, second))

	users, err := s.ListForNotificationHour(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.Email, users[0].Email)
	assert.Equal(t, second.Email, users[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStore_Count(t *testing.T) {
	s, mock := newUserStoreMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
