// Package database provides SQLite-based storage for markscan.
//
// This package implements the Store, which holds:
//   - Cached datasheet specifications, including negative (not-found) entries
//   - Verification results for historical analysis
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Cache freshness is enforced at read time: entries older than the
// configured TTL are reported as misses rather than deleted, so a later
// successful refresh simply overwrites the stale row.
package database
