package service

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
	"github.com/maximus-ms/enbot/internal/store"
)

// RegistrationDefaults carries the configured learning preferences applied
// to newly registered users on top of the domain defaults.
type RegistrationDefaults struct {
	// DayStartHour is the UTC hour at which a learning day rolls over.
	DayStartHour int

	// NotificationHour is the default daily reminder hour.
	NotificationHour int
}

// SettingsUpdate is a partial update of a user's learning preferences.
// Nil fields are left unchanged.
type SettingsUpdate struct {
	NativeLanguage       *string
	TargetLanguage       *string
	DailyGoalMinutes     *int
	DailyGoalWords       *int
	DayStartHour         *int
	NotificationHour     *int
	NotificationsEnabled *bool
}

// LearningStatistics summarizes a user's completed cycles over a window of
// days plus the current size of their dictionary.
type LearningStatistics struct {
	Days                   int     `json:"days"`
	TotalWordsLearned      int     `json:"total_words_learned"`
	TotalMinutes           float64 `json:"total_minutes"`
	TotalCycles            int     `json:"total_cycles"`
	AverageWordsPerCycle   float64 `json:"average_words_per_cycle"`
	AverageMinutesPerCycle float64 `json:"average_minutes_per_cycle"`
	DictionarySize         int     `json:"dictionary_size"`
}

// UserService provides user-related operations: registration, profile
// retrieval, settings updates and learning statistics.
type UserService interface {
	// Register creates a new user with the given credentials and the
	// configured default learning preferences.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByEmail retrieves a user by their email address
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateSettings applies a partial settings update and records which
	// fields changed in the user's activity log.
	UpdateSettings(ctx context.Context, userID uuid.UUID, update SettingsUpdate) (*domain.User, error)

	// Statistics aggregates the user's completed cycles over the trailing
	// window. days <= 0 selects the default 30-day window.
	Statistics(ctx context.Context, userID uuid.UUID, days int) (*LearningStatistics, error)
}

// defaultStatisticsDays is the statistics window used when the caller does
// not provide one.
const defaultStatisticsDays = 30

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore     store.UserStore
	activityStore store.ActivityStore
	cycleStore    store.CycleStore
	userWordStore store.UserWordStore
	defaults      RegistrationDefaults
	db            *sql.DB
	logger        *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	activityStore store.ActivityStore,
	cycleStore store.CycleStore,
	userWordStore store.UserWordStore,
	db *sql.DB,
	defaults RegistrationDefaults,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore:     userStore,
		activityStore: activityStore,
		cycleStore:    cycleStore,
		userWordStore: userWordStore,
		defaults:      defaults,
		db:            db,
		logger:        logger.With("component", "user_service"),
	}
}

// Verify interface compliance at compile time.
var _ UserService = (*UserServiceImpl)(nil)

// Register creates a new user with the specified email and password.
// Uses a transaction so the user row and its creation activity land together.
func (s *UserServiceImpl) Register(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		s.logger.Error("failed to create user object",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.DayStartHour = s.defaults.DayStartHour
	user.NotificationHour = s.defaults.NotificationHour

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)
		if err := txUsers.Create(ctx, user); err != nil {
			return err
		}

		entry, err := domain.NewActivityEntry(user.ID, "User created",
			domain.ActivityLevelInfo, domain.ActivityUserCreated)
		if err != nil {
			return fmt.Errorf("failed to create activity entry: %w", err)
		}
		return s.activityStore.WithTx(tx).Create(ctx, entry)
	})

	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to register with existing email",
				"email", email)
		} else {
			s.logger.Error("failed to save user to database",
				"error", err,
				"email", email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered successfully",
		"user_id", user.ID,
		"email", user.Email)

	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to retrieve user",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found by email",
				"email", email)
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to retrieve user by email",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}

	return user, nil
}

// UpdateSettings applies a partial settings update inside a transaction.
// Following the pattern of getting the complete user first, updating the
// changed fields, and passing the full object back to the store layer.
func (s *UserServiceImpl) UpdateSettings(
	ctx context.Context,
	userID uuid.UUID,
	update SettingsUpdate,
) (*domain.User, error) {
	var user *domain.User

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)

		var err error
		user, err = txUsers.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		changed := applySettingsUpdate(user, update)
		if len(changed) == 0 {
			return nil
		}

		if err := txUsers.Update(ctx, user); err != nil {
			return err
		}

		message := fmt.Sprintf("User settings updated: [%s]", strings.Join(changed, ", "))
		entry, err := domain.NewActivityEntry(userID, message,
			domain.ActivityLevelInfo, domain.ActivitySettingsUpdated)
		if err != nil {
			return fmt.Errorf("failed to create activity entry: %w", err)
		}
		return s.activityStore.WithTx(tx).Create(ctx, entry)
	})

	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to update user settings",
			"error", err,
			"user_id", userID)
		return nil, newServiceError("user", "update_settings", err)
	}

	s.logger.Info("user settings updated",
		"user_id", userID)

	return user, nil
}

// applySettingsUpdate copies the non-nil fields of update onto user and
// returns a "name: value" description of every field that changed.
func applySettingsUpdate(user *domain.User, update SettingsUpdate) []string {
	var changed []string

	if update.NativeLanguage != nil {
		user.NativeLanguage = *update.NativeLanguage
		changed = append(changed, fmt.Sprintf("native_language: %s", *update.NativeLanguage))
	}
	if update.TargetLanguage != nil {
		user.TargetLanguage = *update.TargetLanguage
		changed = append(changed, fmt.Sprintf("target_language: %s", *update.TargetLanguage))
	}
	if update.DailyGoalMinutes != nil {
		user.DailyGoalMinutes = *update.DailyGoalMinutes
		changed = append(changed, fmt.Sprintf("daily_goal_minutes: %d", *update.DailyGoalMinutes))
	}
	if update.DailyGoalWords != nil {
		user.DailyGoalWords = *update.DailyGoalWords
		changed = append(changed, fmt.Sprintf("daily_goal_words: %d", *update.DailyGoalWords))
	}
	if update.DayStartHour != nil {
		user.DayStartHour = *update.DayStartHour
		changed = append(changed, fmt.Sprintf("day_start_hour: %d", *update.DayStartHour))
	}
	if update.NotificationHour != nil {
		user.NotificationHour = *update.NotificationHour
		changed = append(changed, fmt.Sprintf("notification_hour: %d", *update.NotificationHour))
	}
	if update.NotificationsEnabled != nil {
		user.NotificationsEnabled = *update.NotificationsEnabled
		changed = append(changed, fmt.Sprintf("notifications_enabled: %t", *update.NotificationsEnabled))
	}

	return changed
}

// Statistics aggregates the user's completed cycles over the trailing window.
func (s *UserServiceImpl) Statistics(
	ctx context.Context,
	userID uuid.UUID,
	days int,
) (*LearningStatistics, error) {
	if days <= 0 {
		days = defaultStatisticsDays
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	cycles, err := s.cycleStore.ListCompletedSince(ctx, userID, since)
	if err != nil {
		s.logger.Error("failed to list completed cycles",
			"error", err,
			"user_id", userID)
		return nil, newServiceError("user", "statistics", err)
	}

	dictionarySize, err := s.userWordStore.CountByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count user words",
			"error", err,
			"user_id", userID)
		return nil, newServiceError("user", "statistics", err)
	}

	stats := &LearningStatistics{
		Days:           days,
		TotalCycles:    len(cycles),
		DictionarySize: dictionarySize,
	}
	for _, cycle := range cycles {
		stats.TotalWordsLearned += cycle.WordsLearned
		stats.TotalMinutes += cycle.TimeSpent
	}
	if stats.TotalCycles > 0 {
		stats.AverageWordsPerCycle = float64(stats.TotalWordsLearned) / float64(stats.TotalCycles)
		stats.AverageMinutesPerCycle = stats.TotalMinutes / float64(stats.TotalCycles)
	}

	return stats, nil
}
