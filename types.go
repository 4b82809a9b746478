package sessionauth

import (
	"github.com/deniswachira/sessionauth/password"
	"github.com/deniswachira/sessionauth/session"
	"github.com/deniswachira/sessionauth/user"
)

// User is the record returned by the engine.
type User = user.User

// UserStore is the persistence contract for user records.
type UserStore = user.Store

// SessionStore is the persistence contract for session records.
type SessionStore = session.Store

// Hasher is the one-way password hashing capability.
type Hasher = password.Hasher

// DestroyResult reports the outcome of a session teardown.
type DestroyResult = session.DestroyResult
