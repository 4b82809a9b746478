// Package user defines the user record, the lookup/update field vocabulary and
// the [Store] contract consumed by the authentication engine.
//
// # Architecture boundaries
//
// The package owns [User], [Filter], [Update] and the store errors. It ships an
// in-memory [MemoryStore]; the PostgreSQL implementation lives in user/postgres.
//
// # What this package must NOT do
//
//   - Hash or verify passwords. HashedPassword is opaque here.
//   - Import sessionauth or session (no upward imports).
//   - Silently ignore an unsupported filter or update key.
package user
