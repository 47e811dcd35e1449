// Package sqlite provides a SQLite-backed implementation of the token and
// connection stores.
//
// The adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Both store interfaces
// share a single database connection:
//
//   - TokenStore: OAuth token persistence keyed by (user, provider)
//   - ConnectionStore: connection record persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
