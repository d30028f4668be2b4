package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/maximus-ms/enbot/internal/config"
	"github.com/maximus-ms/enbot/internal/domain/srs"
	"github.com/maximus-ms/enbot/internal/events"
	"github.com/maximus-ms/enbot/internal/platform/gemini"
	"github.com/maximus-ms/enbot/internal/platform/postgres"
	"github.com/maximus-ms/enbot/internal/service"
	"github.com/maximus-ms/enbot/internal/service/auth"
	"github.com/maximus-ms/enbot/internal/service/learning"
	"github.com/maximus-ms/enbot/internal/service/notification"
	"github.com/maximus-ms/enbot/internal/service/training"
	"github.com/maximus-ms/enbot/internal/store"
	"github.com/maximus-ms/enbot/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core resources
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	wordStore         store.WordStore
	userWordStore     store.UserWordStore
	cycleStore        store.CycleStore
	activityStore     store.ActivityStore
	notificationStore store.NotificationStore
	taskStore         task.TaskStore

	// Service interfaces
	jwtService          auth.JWTService
	passwordVerifier    auth.PasswordVerifier
	generator           task.Generator
	srsService          srs.Service
	userService         service.UserService
	vocabularyService   service.VocabularyService
	learningService     learning.Service
	trainingService     training.Service
	notificationService notification.Service

	// Event system
	eventEmitter events.EventEmitter

	// Background work
	taskRunner *task.TaskRunner
	scheduler  *notification.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized and background work started. It accepts the core resources
// that must be established before application initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Authentication services
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"access_token_lifetime_minutes", cfg.Auth.AccessTokenLifetimeMinutes,
		"refresh_token_lifetime_minutes", cfg.Auth.RefreshTokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost)
	app.wordStore = postgres.NewPostgresWordStore(db, logger)
	app.userWordStore = postgres.NewPostgresUserWordStore(db, logger)
	app.cycleStore = postgres.NewPostgresCycleStore(db, logger)
	app.activityStore = postgres.NewPostgresActivityStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db)

	// Word content generator
	app.generator, err = gemini.NewGeminiGenerator(
		ctx,
		logger.With("component", "word_generator"),
		cfg.Generation,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize word content generator: %w", err)
	}
	logger.Info("Word content generator initialized", "model", cfg.Generation.ModelName)

	// Spaced repetition schedule from configuration
	srsParams, err := srs.NewParams(srs.ParamsConfig{
		RepetitionIntervals: cfg.Learning.RepetitionIntervals,
		DayStartHour:        cfg.Learning.DayStartHour,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build srs params: %w", err)
	}
	app.srsService, err = srs.NewServiceWithParams(srsParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create srs service: %w", err)
	}

	// Event emitter wires word creation to background enrichment
	emitter := events.NewInMemoryEventEmitter(logger)
	app.eventEmitter = emitter

	// Domain services
	app.userService = service.NewUserService(
		app.userStore,
		app.activityStore,
		app.cycleStore,
		app.userWordStore,
		db,
		service.RegistrationDefaults{
			DayStartHour:     cfg.Learning.DayStartHour,
			NotificationHour: cfg.Notification.DailyReminderHour,
		},
		logger,
	)

	app.vocabularyService = service.NewVocabularyService(
		app.userStore,
		app.wordStore,
		app.userWordStore,
		app.activityStore,
		app.srsService,
		app.eventEmitter,
		cfg.Learning,
		db,
		logger,
	)

	app.learningService = learning.NewService(
		app.cycleStore,
		app.userWordStore,
		app.wordStore,
		app.activityStore,
		app.srsService,
		cfg.Learning,
		db,
		logger,
	)

	app.trainingService = training.NewService(
		app.learningService,
		app.userWordStore,
		app.wordStore,
		app.vocabularyService,
		time.Duration(cfg.Task.SessionIdleTimeoutMinutes)*time.Minute,
		logger,
	)

	app.notificationService = notification.NewService(
		app.userStore,
		app.userWordStore,
		app.cycleStore,
		app.notificationStore,
		logger,
	)

	// Task runner with the enrichment factory as its recovery resolver
	taskFactory := task.NewWordEnrichmentTaskFactory(
		app.vocabularyService,
		app.generator,
		logger,
	)

	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)
	app.taskRunner.SetResolver(taskFactory)

	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(
		taskFactory,
		app.taskRunner,
		logger,
	))

	// Start background work last so nothing runs against a half-built app.
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}
	logger.Info("Task runner started",
		"worker_count", cfg.Task.WorkerCount,
		"queue_size", cfg.Task.QueueSize)

	app.scheduler = notification.NewScheduler(
		app.notificationService,
		app.trainingService,
		cfg.Notification,
		logger,
	)
	app.scheduler.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources in reverse
// startup order: schedulers first, then the task runner, then the database.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}

	app.logger.Info("Application shutdown completed")
}
