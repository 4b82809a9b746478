package user

import "errors"

var (
	// ErrNotFound is returned when no user record matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidFilter is returned when a lookup names an unsupported field or is empty.
	ErrInvalidFilter = errors.New("invalid user filter")
	// ErrInvalidField is returned when an update names an unsupported or immutable field.
	ErrInvalidField = errors.New("invalid user field")
	// ErrDuplicateEmail is returned when an email is already bound to another user.
	ErrDuplicateEmail = errors.New("email already registered")
)
