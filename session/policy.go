package session

import "time"

// Policy decides whether a session is still usable. A session is valid while
// CreatedAt + Duration is after Now. Zero or negative durations expire every
// session immediately.
type Policy struct {
	Duration time.Duration
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// NewPolicy returns a Policy for a window expressed in whole seconds.
func NewPolicy(seconds int) Policy {
	return Policy{Duration: time.Duration(seconds) * time.Second}
}

// Expired reports whether s is outside its validity window.
func (p Policy) Expired(s Session) bool {
	return !p.ExpiresAt(s).After(p.now())
}

// ExpiresAt returns the instant at which s stops being valid.
func (p Policy) ExpiresAt(s Session) time.Time {
	return s.CreatedAt.Add(p.Duration)
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	// Wall clock only; records round-trip through backends without a monotonic reading.
	return time.Now().Round(0)
}
