package user

import "github.com/samber/oops"

// User is a registered identity.
//
// SessionID and ResetToken are nil when unset.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	SessionID      *string
	ResetToken     *string
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.SessionID = cloneString(u.SessionID)
	out.ResetToken = cloneString(u.ResetToken)
	return &out
}

// Field names a column of the user record.
type Field string

const (
	FieldID             Field = "id"
	FieldEmail          Field = "email"
	FieldHashedPassword Field = "hashed_password"
	FieldSessionID      Field = "session_id"
	FieldResetToken     Field = "reset_token"
)

// Fields lists every supported field in column order.
var Fields = []Field{FieldID, FieldEmail, FieldHashedPassword, FieldSessionID, FieldResetToken}

// Valid reports whether f is one of the supported fields.
func (f Field) Valid() bool {
	switch f {
	case FieldID, FieldEmail, FieldHashedPassword, FieldSessionID, FieldResetToken:
		return true
	default:
		return false
	}
}

// Nullable reports whether f may be cleared.
func (f Field) Nullable() bool {
	return f == FieldSessionID || f == FieldResetToken
}

// Value returns the field value of u and whether it is set.
func (f Field) Value(u *User) (string, bool) {
	switch f {
	case FieldID:
		return u.ID, true
	case FieldEmail:
		return u.Email, true
	case FieldHashedPassword:
		return u.HashedPassword, true
	case FieldSessionID:
		return deref(u.SessionID)
	case FieldResetToken:
		return deref(u.ResetToken)
	default:
		return "", false
	}
}

// Filter selects user records. Every pair must match.
type Filter map[Field]string

// Validate rejects empty filters and unsupported keys.
func (f Filter) Validate() error {
	if len(f) == 0 {
		return oops.Code("USER_INVALID_FILTER").With("reason", "empty filter").Wrap(ErrInvalidFilter)
	}
	for field := range f {
		if !field.Valid() {
			return oops.Code("USER_INVALID_FILTER").With("field", string(field)).Wrap(ErrInvalidFilter)
		}
	}
	return nil
}

// Matches reports whether u satisfies every pair of f. A nil nullable
// field never matches.
func (f Filter) Matches(u *User) bool {
	for field, want := range f {
		got, ok := field.Value(u)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Redacted renders f for logs and error context with secret values masked.
func (f Filter) Redacted() map[string]string {
	out := make(map[string]string, len(f))
	for field, v := range f {
		switch field {
		case FieldHashedPassword, FieldResetToken, FieldSessionID:
			out[string(field)] = "<redacted>"
		default:
			out[string(field)] = v
		}
	}
	return out
}

// Update is a set of field assignments. A nil value clears a nullable field.
type Update map[Field]*string

// Validate rejects unsupported keys, the immutable id and nil values for
// non-nullable fields.
func (u Update) Validate() error {
	for field, v := range u {
		switch {
		case !field.Valid():
			return oops.Code("USER_INVALID_FIELD").With("field", string(field)).Wrap(ErrInvalidField)
		case field == FieldID:
			return oops.Code("USER_INVALID_FIELD").With("field", string(field)).With("reason", "immutable").Wrap(ErrInvalidField)
		case v == nil && !field.Nullable():
			return oops.Code("USER_INVALID_FIELD").With("field", string(field)).With("reason", "not nullable").Wrap(ErrInvalidField)
		}
	}
	return nil
}

// Apply writes the assignments of u onto usr. Call Validate first.
func (u Update) Apply(usr *User) {
	for field, v := range u {
		switch field {
		case FieldEmail:
			usr.Email = *v
		case FieldHashedPassword:
			usr.HashedPassword = *v
		case FieldSessionID:
			usr.SessionID = cloneString(v)
		case FieldResetToken:
			usr.ResetToken = cloneString(v)
		}
	}
}

// Value returns a pointer to v, for building an [Update].
func Value(v string) *string {
	return &v
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
