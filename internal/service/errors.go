package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError for context
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// This is typically returned when a user attempts to modify a resource they don't own.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrUserNotFound indicates that the requested user does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrUserNotFound = errors.New("user not found")

	// ErrWordNotFound indicates that the requested word does not exist or is
	// not part of the user's dictionary.
	// API layer should map this to HTTP 404 Not Found.
	ErrWordNotFound = errors.New("word not found")

	// ErrNoWordsGiven indicates an add-words request carried no usable word
	// texts after trimming.
	// API layer should map this to HTTP 400 Bad Request.
	ErrNoWordsGiven = errors.New("no words given")
)

// ServiceError wraps errors from a service with the service and operation
// that produced them. This allows consumers to differentiate between
// different failures using errors.As instead of string matching.
type ServiceError struct {
	// Service names the service that failed (e.g. "user", "vocabulary").
	Service string
	// Op is the operation that failed (e.g. "create", "add_words").
	Op string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err with service/operation context. Known sentinel
// errors pass through unchanged so errors.Is checks at the API layer keep
// working without unwrapping.
func newServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotOwned) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrWordNotFound) ||
		errors.Is(err, ErrNoWordsGiven) {
		return err
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}
