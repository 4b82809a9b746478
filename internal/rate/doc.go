// Package rate throttles failed logins with Redis fixed-window counters.
//
// Keys are "<prefix>:rl:login:<hash>" where hash is a truncated SHA-256 of the
// normalized email, so addresses never appear in Redis key names.
//
// # What this package must NOT do
//
//   - Decide whether a password is correct. The engine reports outcomes.
//   - Fail open silently: backend errors surface as ErrRedisUnavailable and the
//     caller decides.
package rate
