package session

import "time"

// Session binds an opaque identifier to a user. CreatedAt is fixed at creation.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// Filter selects sessions. Empty fields match everything.
type Filter struct {
	SessionID string
	UserID    string
}

// Matches reports whether s satisfies f.
func (f Filter) Matches(s Session) bool {
	if f.SessionID != "" && f.SessionID != s.ID {
		return false
	}
	if f.UserID != "" && f.UserID != s.UserID {
		return false
	}
	return true
}

func (s Session) validate() error {
	if s.ID == "" || s.UserID == "" {
		return ErrInvalidRecord
	}
	return nil
}
