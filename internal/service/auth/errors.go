package auth

import "errors"

// Sentinel errors for token validation. The API layer maps all of them to
// 401 responses but logs them distinctly.
var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned for access tokens past their expiry.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid is returned when the nbf claim lies in the future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken is returned when a request carries no token at all.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrWrongTokenType is returned when an access token is presented to
	// the refresh endpoint or a refresh token to a protected route.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrInvalidRefreshToken covers malformed refresh tokens and bad
	// signatures on them.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken means the session is over and the user must
	// log in again.
	ErrExpiredRefreshToken = errors.New("refresh token has expired")
)
