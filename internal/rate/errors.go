package rate

import "errors"

var (
	// ErrRateLimited is returned once an email has no attempts left in the window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures so callers can fail open.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
