// Package postgres implements [user.Store] on PostgreSQL through a pgx/v5
// pool, and ships the schema as embedded golang-migrate migrations.
//
// Filters and updates are compiled from the fixed [user.Fields] vocabulary
// into parameterised statements; values are never interpolated into SQL.
package postgres
