package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	// RefreshToken is the JWT refresh token to be used to obtain a new token pair
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	// AccessToken is the new JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the new JWT token used to obtain future access tokens
	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// UserResponse represents a user profile with learning preferences.
type UserResponse struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	NativeLanguage       string    `json:"native_language"`
	TargetLanguage       string    `json:"target_language"`
	DailyGoalMinutes     int       `json:"daily_goal_minutes"`
	DailyGoalWords       int       `json:"daily_goal_words"`
	DayStartHour         int       `json:"day_start_hour"`
	NotificationHour     int       `json:"notification_hour"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}

// userToResponse converts a domain.User to a UserResponse.
func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:                   user.ID.String(),
		Email:                user.Email,
		NativeLanguage:       user.NativeLanguage,
		TargetLanguage:       user.TargetLanguage,
		DailyGoalMinutes:     user.DailyGoalMinutes,
		DailyGoalWords:       user.DailyGoalWords,
		DayStartHour:         user.DayStartHour,
		NotificationHour:     user.NotificationHour,
		NotificationsEnabled: user.NotificationsEnabled,
		CreatedAt:            user.CreatedAt,
	}
}

// UpdateSettingsRequest defines the payload for the settings update
// endpoint. All fields are optional; absent fields keep their value.
type UpdateSettingsRequest struct {
	NativeLanguage       *string `json:"native_language,omitempty"       validate:"omitempty,min=2,max=8"`
	TargetLanguage       *string `json:"target_language,omitempty"       validate:"omitempty,min=2,max=8"`
	DailyGoalMinutes     *int    `json:"daily_goal_minutes,omitempty"    validate:"omitempty,gt=0"`
	DailyGoalWords       *int    `json:"daily_goal_words,omitempty"      validate:"omitempty,gt=0"`
	DayStartHour         *int    `json:"day_start_hour,omitempty"        validate:"omitempty,gte=0,lte=23"`
	NotificationHour     *int    `json:"notification_hour,omitempty"     validate:"omitempty,gte=0,lte=23"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}

// NotificationResponse represents one notification in the user's inbox.
type NotificationResponse struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// notificationToResponse converts a domain.Notification to a NotificationResponse.
func notificationToResponse(n *domain.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Kind:      string(n.Kind),
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
	if !n.ReadAt.IsZero() {
		resp.Read = true
		readAt := n.ReadAt
		resp.ReadAt = &readAt
	}
	return resp
}

// AddWordsRequest defines the payload for adding words to the dictionary.
type AddWordsRequest struct {
	// Texts are the words or phrases to add, one entry per word.
	Texts []string `json:"texts" validate:"required,min=1,max=100,dive,min=1,max=200"`

	// Priority orders the new words against the rest of the dictionary.
	// Higher values are picked into learning cycles first.
	Priority int `json:"priority" validate:"gte=0"`
}

// UpdateWordRequest defines the payload for editing a dictionary word. All
// fields are optional; absent fields keep their value.
type UpdateWordRequest struct {
	Translation   *string `json:"translation,omitempty"   validate:"omitempty,min=1"`
	Transcription *string `json:"transcription,omitempty"`
	Priority      *int    `json:"priority,omitempty"      validate:"omitempty,gte=0"`
}
