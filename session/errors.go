package session

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

var (
	// ErrStoreUnavailable is returned when the backing medium cannot be read or written.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrNoSessionID is reported when an operation receives an empty session identifier.
	ErrNoSessionID = errors.New("no session id")
	// ErrSessionNotFound is reported when no record matches the identifier.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is reported when a record exists but its validity window has lapsed.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidRecord is returned when a record is missing its id or owner.
	ErrInvalidRecord = errors.New("invalid session record")
	// ErrCorruptRecord is returned when a stored record cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt session record")
)

// WrapUnavailable tags a backend failure with ErrStoreUnavailable while
// keeping the cause in the chain.
func WrapUnavailable(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return oops.Code("SESSION_STORE_UNAVAILABLE").
		With("backend", backend).
		With("operation", op).
		Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}
