package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/maximus-ms/enbot/internal/api/shared"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/service"
)

// WordHandler handles dictionary requests: adding words, listings, lookups,
// edits and removal.
type WordHandler struct {
	vocabularyService service.VocabularyService
	logger            *slog.Logger
}

// NewWordHandler creates a new WordHandler with the given dependencies.
func NewWordHandler(vocabularyService service.VocabularyService, logger *slog.Logger) *WordHandler {
	if vocabularyService == nil {
		panic("vocabularyService cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &WordHandler{
		vocabularyService: vocabularyService,
		logger:            logger.With(slog.String("component", "word_handler")),
	}
}

// AddWords handles POST /words requests. Duplicate texts within the batch
// and words already in the dictionary are counted, not failed.
func (h *WordHandler) AddWords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req AddWordsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.vocabularyService.AddWords(r.Context(), userID, req.Texts, req.Priority)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add words")
		return
	}

	log.Debug("words added",
		slog.String("user_id", userID.String()),
		slog.Int("added", result.Added),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// ListWords handles GET /words requests. The learned, priority, limit and
// offset query parameters narrow the listing.
func (h *WordHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	filter := service.WordListFilter{
		Learned: queryBool(r, "learned"),
	}
	filter.Limit, filter.Offset = clampListing(queryInt(r, "limit", defaultListLimit), queryInt(r, "offset", 0))
	if priority := queryInt(r, "priority", -1); priority >= 0 {
		filter.Priority = &priority
	}

	words, err := h.vocabularyService.ListWords(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list words")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, words)
}

// SearchWords handles GET /words/search requests against the q query
// parameter.
func (h *WordHandler) SearchWords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Search query is required")
		return
	}
	limit, _ := clampListing(queryInt(r, "limit", defaultListLimit), 0)

	words, err := h.vocabularyService.SearchWords(r.Context(), userID, query, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to search words")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, words)
}

// DueWords handles GET /words/due requests, listing words whose review
// date has arrived.
func (h *WordHandler) DueWords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, _ := clampListing(queryInt(r, "limit", defaultListLimit), 0)

	words, err := h.vocabularyService.DueWords(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due words")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, words)
}

// GetWord handles GET /words/{id} requests, returning the word together
// with the user's learning state and example sentences.
func (h *WordHandler) GetWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	details, err := h.vocabularyService.GetWordDetails(r.Context(), userID, wordID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve word")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, details)
}

// UpdateWord handles PUT /words/{id} requests.
func (h *WordHandler) UpdateWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateWordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	details, err := h.vocabularyService.UpdateWord(r.Context(), userID, wordID, service.WordUpdate{
		Translation:   req.Translation,
		Transcription: req.Transcription,
		Priority:      req.Priority,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update word")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, details)
}

// DeleteWord handles DELETE /words/{id} requests.
func (h *WordHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.vocabularyService.DeleteWord(r.Context(), userID, wordID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete word")
		return
	}

	log.Debug("word deleted",
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ResetProgress handles POST /words/{id}/reset requests, sending the word
// back to stage zero.
func (h *WordHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	details, err := h.vocabularyService.ResetWordProgress(r.Context(), userID, wordID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset word progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, details)
}
