package sessionauth

import (
	"errors"

	"github.com/deniswachira/sessionauth/user"
)

var (
	// ErrDuplicateEmail is returned by RegisterUser when the email is already registered.
	ErrDuplicateEmail = user.ErrDuplicateEmail
	// ErrUserNotFound is the user store's not-found sentinel.
	ErrUserNotFound = user.ErrNotFound
	// ErrInvalidFilter is returned for lookups on unsupported user fields.
	ErrInvalidFilter = user.ErrInvalidFilter
	// ErrInvalidField is returned for updates of unsupported user fields.
	ErrInvalidField = user.ErrInvalidField

	// ErrUnregisteredEmail is returned when a reset token is requested for an unknown email.
	ErrUnregisteredEmail = errors.New("email not registered")
	// ErrInvalidResetToken is returned when a reset token matches no user.
	ErrInvalidResetToken = errors.New("invalid reset token")
	// ErrPasswordResetDisabled is returned by the reset handshake when PasswordReset.Enabled is false.
	ErrPasswordResetDisabled = errors.New("password reset disabled")
	// ErrPasswordPolicy is returned when a new password violates the configured policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidEmail is returned when an email is empty.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrUnauthorized is returned by Profile when the session resolves to no user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionCreationFailed wraps session store failures from CreateSession.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
