package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maximus-ms/enbot/internal/api"
	apiMiddleware "github.com/maximus-ms/enbot/internal/api/middleware"
	"github.com/maximus-ms/enbot/internal/platform/metrics"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It uses the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	if app.config.Metrics.Enabled {
		r.Use(apiMiddleware.Metrics)
	}

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		app.passwordVerifier,
		time.Duration(app.config.Auth.AccessTokenLifetimeMinutes)*time.Minute,
		app.logger,
	)
	userHandler := api.NewUserHandler(
		app.userService,
		app.notificationService,
		app.activityStore,
		app.logger,
	)
	wordHandler := api.NewWordHandler(app.vocabularyService, app.logger)
	learningHandler := api.NewLearningHandler(
		app.learningService,
		app.trainingService,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Profile endpoints
			r.Get("/me", userHandler.Me)
			r.Put("/me/settings", userHandler.UpdateSettings)
			r.Get("/me/statistics", userHandler.Statistics)
			r.Get("/me/activity", userHandler.Activity)
			r.Get("/me/notifications", userHandler.Notifications)
			r.Post("/me/notifications/{id}/read", userHandler.MarkNotificationRead)

			// Dictionary endpoints
			r.Post("/words", wordHandler.AddWords)
			r.Get("/words", wordHandler.ListWords)
			r.Get("/words/search", wordHandler.SearchWords)
			r.Get("/words/due", wordHandler.DueWords)
			r.Get("/words/{id}", wordHandler.GetWord)
			r.Put("/words/{id}", wordHandler.UpdateWord)
			r.Delete("/words/{id}", wordHandler.DeleteWord)
			r.Post("/words/{id}/reset", wordHandler.ResetProgress)

			// Learning endpoints
			r.Post("/learning/cycle", learningHandler.StartCycle)
			r.Get("/learning/cycle", learningHandler.GetCycle)
			r.Get("/learning/next", learningHandler.NextWord)
			r.Post("/learning/respond", learningHandler.Respond)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	if app.config.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler())
	}

	return r
}
