// Package session issues, validates and revokes opaque session identifiers.
//
// # Lifecycle
//
// A [Session] is written once at login and never mutated. Its validity is a
// read-time predicate evaluated by [Policy]: the record stays in the store after
// it expires, until [Manager.Destroy] removes it. [Manager.UserIDForSessionID]
// therefore reloads the store snapshot and checks the policy on every call.
//
// # Stores
//
// [SnapshotStore] keeps an in-memory view over a [Backend] with an explicit
// load/flush lifecycle (Reload, Persist). Backends live in sub-packages:
// redisstore (go-redis) and boltstore (bbolt). [NewMemoryBackend] serves tests
// and single-process deployments.
//
// # What this package must NOT do
//
//   - Import sessionauth or user (no upward imports).
//   - Delete expired records on read.
//   - Propagate store failures out of [Manager.Destroy]; they are reported in
//     [DestroyResult].
package session
