package api

import (
	"log/slog"
	"net/http"

	"github.com/maximus-ms/enbot/internal/api/shared"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/service"
	"github.com/maximus-ms/enbot/internal/service/notification"
	"github.com/maximus-ms/enbot/internal/store"
)

// Listing defaults for the activity and notification endpoints.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// UserHandler handles profile, settings, statistics, activity and
// notification inbox requests for the authenticated user.
type UserHandler struct {
	userService         service.UserService
	notificationService notification.Service
	activityStore       store.ActivityStore
	logger              *slog.Logger
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(
	userService service.UserService,
	notificationService notification.Service,
	activityStore store.ActivityStore,
	logger *slog.Logger,
) *UserHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	if notificationService == nil {
		panic("notificationService cannot be nil")
	}
	if activityStore == nil {
		panic("activityStore cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &UserHandler{
		userService:         userService,
		notificationService: notificationService,
		activityStore:       activityStore,
		logger:              logger.With(slog.String("component", "user_handler")),
	}
}

// clampListing normalizes limit and offset query values for a listing.
func clampListing(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Me handles GET /me requests.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateSettings handles PUT /me/settings requests.
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req UpdateSettingsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, err := h.userService.UpdateSettings(r.Context(), userID, service.SettingsUpdate{
		NativeLanguage:       req.NativeLanguage,
		TargetLanguage:       req.TargetLanguage,
		DailyGoalMinutes:     req.DailyGoalMinutes,
		DailyGoalWords:       req.DailyGoalWords,
		DayStartHour:         req.DayStartHour,
		NotificationHour:     req.NotificationHour,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update settings")
		return
	}

	log.Debug("settings updated", slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// Statistics handles GET /me/statistics requests. The optional days query
// parameter selects the aggregation window.
func (h *UserHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	days := queryInt(r, "days", 0)

	stats, err := h.userService.Statistics(r.Context(), userID, days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Activity handles GET /me/activity requests, newest entries first.
func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset := clampListing(queryInt(r, "limit", defaultListLimit), queryInt(r, "offset", 0))

	entries, err := h.activityStore.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve activity")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// Notifications handles GET /me/notifications requests. The unread query
// parameter narrows the listing to unread notifications.
func (h *UserHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	unreadOnly := false
	if unread := queryBool(r, "unread"); unread != nil {
		unreadOnly = *unread
	}
	limit, offset := clampListing(queryInt(r, "limit", defaultListLimit), queryInt(r, "offset", 0))

	notifications, err := h.notificationService.List(r.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve notifications")
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, notificationToResponse(n))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// MarkNotificationRead handles POST /me/notifications/{id}/read requests.
func (h *UserHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		HandleAPIError(w, r, err, "Failed to mark notification read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
