package user

import "context"

// Store is the persistence contract for user records.
//
// Implementations must make each call atomic and safe for concurrent use.
// Returned users are copies; mutating them does not affect the store.
type Store interface {
	// Add creates a user. It fails with ErrDuplicateEmail if the email is taken.
	Add(ctx context.Context, email, hashedPassword string) (*User, error)
	// FindOne returns the first user matching filter, ErrNotFound when none
	// does and ErrInvalidFilter for an empty filter or unsupported key.
	FindOne(ctx context.Context, filter Filter) (*User, error)
	// Update assigns fields on the user with the given id. It fails with
	// ErrInvalidField for unsupported keys and ErrNotFound for unknown ids.
	Update(ctx context.Context, id string, fields Update) error
	// UpdateIf is Update guarded by cond: fields are assigned only if the
	// user with the given id still matches cond at write time. It fails with
	// ErrNotFound when the id is unknown or cond no longer holds.
	UpdateIf(ctx context.Context, id string, cond Filter, fields Update) error
}
