package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/maximus-ms/enbot/internal/api/shared"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/service/learning"
	"github.com/maximus-ms/enbot/internal/service/training"
)

// CycleResponse carries an open cycle together with its remaining words.
type CycleResponse struct {
	Cycle *domain.LearningCycle  `json:"cycle"`
	Words []*learning.CycleEntry `json:"words"`
}

// LearningHandler handles learning cycle and training requests.
type LearningHandler struct {
	learningService learning.Service
	trainingService training.Service
	logger          *slog.Logger
}

// NewLearningHandler creates a new LearningHandler with the given dependencies.
func NewLearningHandler(
	learningService learning.Service,
	trainingService training.Service,
	logger *slog.Logger,
) *LearningHandler {
	if learningService == nil {
		panic("learningService cannot be nil")
	}
	if trainingService == nil {
		panic("trainingService cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &LearningHandler{
		learningService: learningService,
		trainingService: trainingService,
		logger:          logger.With(slog.String("component", "learning_handler")),
	}
}

// StartCycle handles POST /learning/cycle requests. The open cycle is
// returned when one exists; otherwise a new one is filled by priority.
// Responds 204 when the dictionary has nothing to offer.
func (h *LearningHandler) StartCycle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	cycle, words, err := h.learningService.EnsureCycle(r.Context(), userID)
	if errors.Is(err, learning.ErrNoWords) {
		log.Debug("no words available for a cycle", slog.String("user_id", userID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start learning cycle")
		return
	}

	log.Debug("cycle ready",
		slog.String("user_id", userID.String()),
		slog.String("cycle_id", cycle.ID.String()),
		slog.Int("words", len(words)))
	shared.RespondWithJSON(w, r, http.StatusOK, CycleResponse{Cycle: cycle, Words: words})
}

// GetCycle handles GET /learning/cycle requests, returning the open cycle
// and its unlearned words. Responds 204 when no cycle is open.
func (h *LearningHandler) GetCycle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	cycle, words, err := h.learningService.WordsForCycle(r.Context(), userID)
	if errors.Is(err, learning.ErrNoActiveCycle) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve learning cycle")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CycleResponse{Cycle: cycle, Words: words})
}

// NextWord handles GET /learning/next requests, returning the next training
// prompt. Responds 204 when there is no active cycle to train.
func (h *LearningHandler) NextWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	prompt, err := h.trainingService.NextWord(r.Context(), userID)
	if errors.Is(err, learning.ErrNoActiveCycle) || errors.Is(err, learning.ErrNoWords) {
		log.Debug("nothing to train", slog.String("user_id", userID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get next word")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, prompt)
}

// Respond handles POST /learning/respond requests, applying the user's
// reply to the current prompt. The result carries the next prompt, or none
// when the cycle completed.
func (h *LearningHandler) Respond(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req training.Response
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.trainingService.Respond(r.Context(), userID, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to process response")
		return
	}

	log.Debug("response processed",
		slog.String("user_id", userID.String()),
		slog.String("action", req.Action),
		slog.Bool("cycle_completed", result.CycleCompleted))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
