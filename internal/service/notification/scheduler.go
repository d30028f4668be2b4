package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maximus-ms/enbot/internal/config"
)

// milestoneInterval is how often the achievement/streak pass runs. It is
// not configurable; the repeat window does the real rate limiting.
const milestoneInterval = time.Hour

// sessionCleanupInterval is how often idle training sessions are swept.
const sessionCleanupInterval = 5 * time.Minute

// SessionEvictor is the slice of the training service the scheduler
// drives for idle-session cleanup.
type SessionEvictor interface {
	EvictIdleSessions(ctx context.Context) int
}

// Scheduler runs the notification passes and session maintenance on fixed
// intervals. Each job runs in its own goroutine; Stop cancels them all and
// waits for them to finish.
type Scheduler struct {
	service  Service
	sessions SessionEvictor
	cfg      config.NotificationConfig
	logger   *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	// lastDailyHour remembers which UTC hour the daily pass last ran
	// for, so short check intervals do not double-send within an hour.
	// Touched only by the daily loop goroutine.
	lastDailyHour int
}

// NewScheduler creates a scheduler over the notification service.
func NewScheduler(
	service Service,
	sessions SessionEvictor,
	cfg config.NotificationConfig,
	logger *slog.Logger,
) *Scheduler {
	if service == nil {
		panic("service cannot be nil")
	}
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		service:       service,
		sessions:      sessions,
		cfg:           cfg,
		logger:        logger.With(slog.String("component", "notification_scheduler")),
		ctx:           ctx,
		cancelFunc:    cancel,
		lastDailyHour: -1,
	}
}

// Start launches the scheduler's background loops.
func (s *Scheduler) Start() {
	s.wg.Add(4)
	go s.dailyLoop()
	go s.reviewLoop()
	go s.milestoneLoop()
	go s.sessionCleanupLoop()
	s.logger.Info("notification scheduler started",
		slog.Int("daily_check_interval_minutes", s.cfg.DailyCheckIntervalMinutes),
		slog.Int("review_check_interval_minutes", s.cfg.ReviewCheckIntervalMinutes))
}

// Stop cancels the loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
	s.logger.Info("notification scheduler stopped")
}

func (s *Scheduler) dailyLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(s.cfg.DailyCheckIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			hour := time.Now().UTC().Hour()
			if hour == s.lastDailyHour {
				continue
			}
			sent, err := s.service.DailyReminderPass(s.ctx, hour)
			if err != nil {
				s.logger.Error("daily reminder pass failed", slog.String("error", err.Error()))
				s.sleep(s.errorBackoff())
				continue
			}
			s.lastDailyHour = hour
			if sent > 0 {
				s.logger.Info("daily reminder pass finished",
					slog.Int("hour", hour), slog.Int("sent", sent))
			}
		}
	}
}

func (s *Scheduler) reviewLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(s.cfg.ReviewCheckIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			sent, err := s.service.ReviewReminderPass(s.ctx)
			if err != nil {
				s.logger.Error("review reminder pass failed", slog.String("error", err.Error()))
				s.sleep(s.errorBackoff())
				continue
			}
			if sent > 0 {
				s.logger.Info("review reminder pass finished", slog.Int("sent", sent))
			}
		}
	}
}

func (s *Scheduler) milestoneLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(milestoneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			sent, err := s.service.MilestonePass(s.ctx)
			if err != nil {
				s.logger.Error("milestone pass failed", slog.String("error", err.Error()))
				s.sleep(s.errorBackoff())
				continue
			}
			if sent > 0 {
				s.logger.Info("milestone pass finished", slog.Int("sent", sent))
			}
		}
	}
}

func (s *Scheduler) sessionCleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.sessions.EvictIdleSessions(s.ctx); evicted > 0 {
				s.logger.Info("evicted idle training sessions", slog.Int("count", evicted))
			}
		}
	}
}

func (s *Scheduler) errorBackoff() time.Duration {
	return time.Duration(s.cfg.ErrorBackoffSeconds) * time.Second
}

// sleep waits for the duration or until the scheduler is stopped.
func (s *Scheduler) sleep(d time.Duration) {
	select {
	case <-s.ctx.Done():
	case <-time.After(d):
	}
}
