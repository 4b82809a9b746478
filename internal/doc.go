// Package internal contains helpers that are private to the sessionauth module:
// opaque identifier generation for sessions, reset tokens and user records.
//
// # Sub-packages
//
//   - errutil — structured slog logging of oops-coded errors
//   - rate — Redis-backed fixed-window login throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public sessionauth API.
//   - Perform I/O beyond reading the system random source.
package internal
