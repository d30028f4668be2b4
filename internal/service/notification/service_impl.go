package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/domain/srs"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/platform/metrics"
	"github.com/maximus-ms/enbot/internal/store"
)

// milestoneRepeatWindow caps achievement and streak notifications to one
// of each kind per window. Milestone checks are equality tests against
// counts that can sit on a milestone for days; without the cap every pass
// would re-fire them.
const milestoneRepeatWindow = 24 * time.Hour

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	userStore         store.UserStore
	userWordStore     store.UserWordStore
	cycleStore        store.CycleStore
	notificationStore store.NotificationStore
	logger            *slog.Logger
}

// NewService creates a new notification Service implementation.
func NewService(
	userStore store.UserStore,
	userWordStore store.UserWordStore,
	cycleStore store.CycleStore,
	notificationStore store.NotificationStore,
	logger *slog.Logger,
) Service {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if userWordStore == nil {
		panic("userWordStore cannot be nil")
	}
	if cycleStore == nil {
		panic("cycleStore cannot be nil")
	}
	if notificationStore == nil {
		panic("notificationStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		userStore:         userStore,
		userWordStore:     userWordStore,
		cycleStore:        cycleStore,
		notificationStore: notificationStore,
		logger:            logger.With(slog.String("component", "notification_service")),
	}
}

// DailyReminderPass implements Service.DailyReminderPass.
func (s *serviceImpl) DailyReminderPass(ctx context.Context, hour int) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	users, err := s.userStore.ListForNotificationHour(ctx, hour)
	if err != nil {
		return 0, wrapError("daily_pass", err)
	}

	sent := 0
	for _, user := range users {
		if err := s.sendDailyReminder(ctx, user); err != nil {
			log.Error("failed to send daily reminder",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
			metrics.RecordError("notification")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *serviceImpl) sendDailyReminder(ctx context.Context, user *domain.User) error {
	stats, err := s.collectDailyStats(ctx, user.ID)
	if err != nil {
		return err
	}
	message := dailyReminderMessage(user, stats)
	return s.send(ctx, user, domain.NotificationDailyReminder, message, true)
}

func (s *serviceImpl) collectDailyStats(ctx context.Context, userID uuid.UUID) (dailyStats, error) {
	var stats dailyStats
	var err error

	if stats.totalWords, err = s.userWordStore.CountByUser(ctx, userID); err != nil {
		return stats, err
	}
	if stats.learnedWords, err = s.userWordStore.CountLearnedByUser(ctx, userID); err != nil {
		return stats, err
	}
	if stats.dueWords, err = s.userWordStore.CountDue(ctx, userID, time.Now().UTC()); err != nil {
		return stats, err
	}

	cycle, err := s.cycleStore.GetActive(ctx, userID)
	switch {
	case err == nil:
		stats.activeCycle = cycle
	case errors.Is(err, store.ErrCycleNotFound):
		// No open cycle; the goals block is simply omitted.
	default:
		return stats, err
	}

	return stats, nil
}

// ReviewReminderPass implements Service.ReviewReminderPass.
func (s *serviceImpl) ReviewReminderPass(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	users, err := s.userStore.ListNotifiable(ctx)
	if err != nil {
		return 0, wrapError("review_pass", err)
	}

	sent := 0
	for _, user := range users {
		ok, dueCount, err := s.shouldSendReviewReminder(ctx, user, now)
		if err != nil {
			log.Error("failed to check review reminder",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
			metrics.RecordError("notification")
			continue
		}
		if !ok {
			continue
		}

		words, err := s.userWordStore.ListDueWords(ctx, user.ID, now, reviewReminderWordLimit)
		if err != nil {
			log.Error("failed to list due words",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
			metrics.RecordError("notification")
			continue
		}

		message := reviewReminderMessage(words, dueCount)
		if err := s.send(ctx, user, domain.NotificationReviewReminder, message, true); err != nil {
			log.Error("failed to send review reminder",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
			metrics.RecordError("notification")
			continue
		}
		sent++
	}
	return sent, nil
}

// shouldSendReviewReminder applies the review-reminder rules: due words
// exist, the user is not mid-cycle, and nothing was sent this learning
// day. Returns the due-word count so the caller builds the message
// without re-counting.
func (s *serviceImpl) shouldSendReviewReminder(
	ctx context.Context,
	user *domain.User,
	now time.Time,
) (bool, int, error) {
	if !user.NotificationsEnabled {
		return false, 0, nil
	}

	dueCount, err := s.userWordStore.CountDue(ctx, user.ID, now)
	if err != nil {
		return false, 0, err
	}
	if dueCount == 0 {
		return false, 0, nil
	}

	_, err = s.cycleStore.GetActive(ctx, user.ID)
	switch {
	case err == nil:
		// Mid-cycle users are already learning; no nudge.
		return false, 0, nil
	case errors.Is(err, store.ErrCycleNotFound):
	default:
		return false, 0, err
	}

	if !user.LastNotificationAt.IsZero() &&
		srs.SameLearningDay(user.LastNotificationAt, now, user.DayStartHour) {
		return false, 0, nil
	}

	return true, dueCount, nil
}

// MilestonePass implements Service.MilestonePass.
func (s *serviceImpl) MilestonePass(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	users, err := s.userStore.ListNotifiable(ctx)
	if err != nil {
		return 0, wrapError("milestone_pass", err)
	}

	sent := 0
	for _, user := range users {
		n, err := s.sendMilestones(ctx, user, now)
		if err != nil {
			log.Error("failed to send milestone notifications",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
			metrics.RecordError("notification")
			continue
		}
		sent += n
	}
	return sent, nil
}

func (s *serviceImpl) sendMilestones(ctx context.Context, user *domain.User, now time.Time) (int, error) {
	sent := 0

	learned, err := s.userWordStore.CountLearnedByUser(ctx, user.ID)
	if err != nil {
		return sent, err
	}
	if message, ok := achievementMilestones[learned]; ok {
		fired, err := s.sendMilestone(ctx, user, domain.NotificationAchievement, message, now)
		if err != nil {
			return sent, err
		}
		if fired {
			sent++
		}
	}

	completed, err := s.cycleStore.CountCompletedSince(ctx, user.ID, now.AddDate(0, 0, -7))
	if err != nil {
		return sent, err
	}
	if message, ok := streakMilestones[completed]; ok {
		fired, err := s.sendMilestone(ctx, user, domain.NotificationStreak, message, now)
		if err != nil {
			return sent, err
		}
		if fired {
			sent++
		}
	}

	return sent, nil
}

// sendMilestone records a milestone notification unless one of the same
// kind was already sent within the repeat window.
func (s *serviceImpl) sendMilestone(
	ctx context.Context,
	user *domain.User,
	kind domain.NotificationKind,
	message string,
	now time.Time,
) (bool, error) {
	recent, err := s.notificationStore.CountByKindSince(
		ctx, user.ID, kind, now.Add(-milestoneRepeatWindow))
	if err != nil {
		return false, err
	}
	if recent > 0 {
		return false, nil
	}

	if err := s.send(ctx, user, kind, message, false); err != nil {
		return false, err
	}
	return true, nil
}

// send records the notification and, for reminders, stamps the user's
// last-notification time that the once-per-learning-day rule reads.
func (s *serviceImpl) send(
	ctx context.Context,
	user *domain.User,
	kind domain.NotificationKind,
	message string,
	stampUser bool,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	notification, err := domain.NewNotification(user.ID, kind, message)
	if err != nil {
		return err
	}
	if err := s.notificationStore.Create(ctx, notification); err != nil {
		return err
	}

	if stampUser {
		if err := s.userStore.SetLastNotificationAt(ctx, user.ID, time.Now().UTC()); err != nil {
			return err
		}
	}

	metrics.RecordNotification(string(kind))
	log.Info("notification sent",
		slog.String("kind", string(kind)),
		slog.String("user_id", user.ID.String()))
	return nil
}

// List implements Service.List.
func (s *serviceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit, offset int,
) ([]*domain.Notification, error) {
	notifications, err := s.notificationStore.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, wrapError("list", err)
	}
	return notifications, nil
}

// MarkRead implements Service.MarkRead.
func (s *serviceImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.notificationStore.MarkRead(ctx, notificationID, userID, time.Now().UTC())
	if err != nil {
		return wrapError("mark_read", err)
	}
	return nil
}
