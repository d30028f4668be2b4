package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximus-ms/enbot/internal/api/shared"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/service"
	"github.com/maximus-ms/enbot/internal/service/auth"
	"github.com/maximus-ms/enbot/internal/service/learning"
	"github.com/maximus-ms/enbot/internal/service/training"
	"github.com/maximus-ms/enbot/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid refresh token", auth.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"not owned", service.ErrNotOwned, http.StatusForbidden},
		{"cycle not owned", learning.ErrCycleNotOwned, http.StatusForbidden},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"word not found", service.ErrWordNotFound, http.StatusNotFound},
		{"notification not found", store.ErrNotificationNotFound, http.StatusNotFound},
		{"cycle word not found", learning.ErrCycleWordNotFound, http.StatusNotFound},
		{"no session", training.ErrNoSession, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"word exists", store.ErrWordExists, http.StatusConflict},
		{"cycle already completed", domain.ErrCycleAlreadyCompleted, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"invalid ID", domain.ErrInvalidID, http.StatusBadRequest},
		{"no words given", service.ErrNoWordsGiven, http.StatusBadRequest},
		{"unknown action", training.ErrUnknownAction, http.StatusBadRequest},
		{"unexpected answer", training.ErrUnexpectedAnswer, http.StatusBadRequest},
		{"unknown error", errors.New("database exploded"), http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestMapErrorToStatusCodeWrapped(t *testing.T) {
	t.Parallel()

	// Services wrap sentinels with operation context; the mapping must
	// still see through the wrapping.
	wrapped := fmt.Errorf("failed to register user: %w", store.ErrEmailExists)
	assert.Equal(t, http.StatusConflict, MapErrorToStatusCode(wrapped))

	wrapped = &learning.LearningError{Operation: "mark_learned", Err: store.ErrCycleWordNotFound}
	assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(wrapped))

	wrapped = domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID)
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(wrapped))
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"invalid token", auth.ErrInvalidToken, "Invalid token"},
		{"expired refresh", auth.ErrExpiredRefreshToken, "Invalid refresh token"},
		{"user not found", service.ErrUserNotFound, "User not found"},
		{"word not found", store.ErrUserWordNotFound, "Word not found"},
		{"email exists", store.ErrEmailExists, "Email already exists"},
		{"cycle completed", domain.ErrCycleAlreadyCompleted, "Cycle is already completed"},
		{"no session", training.ErrNoSession, "No active training session"},
		{"unknown", errors.New("pq: connection refused to db at 10.0.0.5"), "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	t.Parallel()

	t.Run("mapped error keeps safe message", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/words", nil)

		HandleAPIError(w, r, store.ErrWordNotFound, "Failed to retrieve word")

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp shared.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Word not found", resp.Error)
	})

	t.Run("unmapped error uses fallback message", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/words", nil)

		internal := errors.New("dial tcp 10.0.0.5:5432: connection refused")
		HandleAPIError(w, r, internal, "Failed to retrieve word")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp shared.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Failed to retrieve word", resp.Error)
		assert.NotContains(t, w.Body.String(), "10.0.0.5")
	})
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	t.Run("field validation error", func(t *testing.T) {
		t.Parallel()
		err := shared.Validate.Struct(LoginRequest{Email: "not-an-email", Password: "pw"})
		require.Error(t, err)

		msg := SanitizeValidationError(err)
		assert.Contains(t, msg, "Invalid Email")
		assert.NotContains(t, msg, "not-an-email")
	})

	t.Run("non-validator error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
	})
}
