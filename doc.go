// Package sessionauth is a session-based authentication engine: it registers
// users, checks credentials, issues and revokes opaque session identifiers and
// runs the one-time password-reset handshake.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Every call is synchronous; the engine
// owns no background goroutines.
//
// # Architecture boundaries
//
// sessionauth is the public surface. It exposes [Engine], [Builder], [Config] and
// metrics types. Session issuance and expiration live in the session package,
// user records in the user package, hashing in the password package. Callers
// only see booleans, user records and the sentinel errors in errors.go.
//
// # What this package must NOT do
//
//   - Tell callers why a login failed (unknown email vs wrong password).
//   - Hold process-wide state. Every store is an explicit handle given to the
//     Builder.
//   - Propagate failures from best-effort teardown (session destroy) as errors.
package sessionauth
