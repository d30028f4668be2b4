package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrEmptyLanguage       = errors.New("language code cannot be empty")
	ErrInvalidHour         = errors.New("hour must be between 0 and 23")
)

// Default learning preferences applied to newly created users. The
// registration flow may override them from configuration before the
// user is stored.
const (
	DefaultNativeLanguage   = "uk"
	DefaultTargetLanguage   = "en"
	DefaultDailyGoalMinutes = 10
	DefaultDailyGoalWords   = 5
	DefaultDayStartHour     = 3
	DefaultNotificationHour = 9
)

// User represents a registered learner. Besides authentication details
// it carries the per-user learning preferences that drive word
// selection, day-boundary handling and notifications.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"` // Never expose password hash in JSON

	NativeLanguage   string `json:"native_language"`
	TargetLanguage   string `json:"target_language"`
	DailyGoalMinutes int    `json:"daily_goal_minutes"`
	DailyGoalWords   int    `json:"daily_goal_words"`

	// DayStartHour is the UTC hour at which the user's learning day
	// rolls over. Anything before it still counts as the previous day.
	DayStartHour int `json:"day_start_hour"`

	NotificationHour     int  `json:"notification_hour"`
	NotificationsEnabled bool `json:"notifications_enabled"`

	// LastNotificationAt is zero when no notification has been sent yet.
	LastNotificationAt time.Time `json:"last_notification_at"`

	// WordsAddedAt records the last time the user added words to their
	// dictionary. Zero when they never have. The priority downgrade
	// cascade fires only on the first addition of a learning day.
	WordsAddedAt time.Time `json:"words_added_at"`

	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email and password and
// default learning preferences. It generates a new UUID for the user ID
// and sets the creation/update timestamps. Returns an error if
// validation fails.
//
// NOTE: This function only sets up the user structure with the plaintext
// password. The caller is responsible for hashing the password before
// storing the user.
func NewUser(email, password string) (*User, error) {
	user := &User{
		ID:                   uuid.New(),
		Email:                email,
		Password:             password, // Plaintext password - must be hashed before storage
		NativeLanguage:       DefaultNativeLanguage,
		TargetLanguage:       DefaultTargetLanguage,
		DailyGoalMinutes:     DefaultDailyGoalMinutes,
		DailyGoalWords:       DefaultDailyGoalWords,
		DayStartHour:         DefaultDayStartHour,
		NotificationHour:     DefaultNotificationHour,
		NotificationsEnabled: true,
		CreatedAt:            time.Now().UTC(),
		UpdatedAt:            time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	// Password validation
	// During user creation/update we need to validate the provided password
	if u.Password != "" {
		// When plaintext password is provided, validate its length
		if !validatePasswordLength(u.Password) {
			if len(u.Password) < 12 {
				return ErrPasswordTooShort
			}
			return ErrPasswordTooLong
		}
	} else {
		// When no plaintext password is provided, the user must have a hashed password
		// (this would be the case for existing users in the database)
		if u.HashedPassword == "" {
			return ErrEmptyPassword
		}
	}

	if u.NativeLanguage == "" || u.TargetLanguage == "" {
		return ErrEmptyLanguage
	}

	if u.DayStartHour < 0 || u.DayStartHour > 23 {
		return ErrInvalidHour
	}

	if u.NotificationHour < 0 || u.NotificationHour > 23 {
		return ErrInvalidHour
	}

	return nil
}

// LanguagePair returns the user's dictionary pair in "target-native"
// form, e.g. "en-uk".
func (u *User) LanguagePair() string {
	return LanguagePair(u.TargetLanguage, u.NativeLanguage)
}

// TODO: Replace this basic email validation with a more robust library
// that follows RFC 5322 and handles edge cases properly.
//
// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format.
func validateEmailFormat(email string) bool {
	// Simple check: an @ that is neither first nor last, and a dot
	// inside the domain part that is neither first nor last.
	atIndex := -1
	for i, char := range email {
		if char == '@' {
			atIndex = i
			break
		}
	}

	if atIndex == -1 || atIndex == 0 || atIndex == len(email)-1 {
		return false
	}

	domainPart := email[atIndex+1:]
	if len(domainPart) < 3 { // minimum would be "a.b"
		return false
	}

	dotIndex := -1
	for i, char := range domainPart {
		if char == '.' {
			dotIndex = i
			break
		}
	}

	if dotIndex == -1 || dotIndex == 0 || dotIndex == len(domainPart)-1 {
		return false
	}

	return true
}

// validatePasswordLength checks if a password is between 12 and 72
// characters. 72 is bcrypt's practical input limit. Length matters more
// than forced character classes, which mostly make passwords harder to
// remember.
func validatePasswordLength(password string) bool {
	passLen := len(password)
	return passLen >= 12 && passLen <= 72
}
