package store

import (
	"errors"
	"fmt"
)

// Base sentinel errors. Entity-specific errors below wrap these, so callers
// can match either the broad class (errors.Is(err, ErrNotFound)) or the
// exact entity (errors.Is(err, ErrUserNotFound)).
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert would violate a uniqueness
	// rule, such as a second user with the same email.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or
	// violates a database constraint. The wrapped error carries details.
	ErrInvalidEntity = errors.New("invalid entity")
)

// Entity-specific errors.
var (
	ErrUserNotFound         = fmt.Errorf("%w: user", ErrNotFound)
	ErrWordNotFound         = fmt.Errorf("%w: word", ErrNotFound)
	ErrUserWordNotFound     = fmt.Errorf("%w: user word", ErrNotFound)
	ErrCycleNotFound        = fmt.Errorf("%w: learning cycle", ErrNotFound)
	ErrCycleWordNotFound    = fmt.Errorf("%w: cycle word", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)

	// ErrEmailExists is returned when registering an email that is already taken.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrWordExists is returned when the dictionary already has the word
	// for the language pair.
	ErrWordExists = fmt.Errorf("%w: word", ErrDuplicate)

	// ErrUserWordExists is returned when the user already tracks the word.
	ErrUserWordExists = fmt.Errorf("%w: user word", ErrDuplicate)
)
