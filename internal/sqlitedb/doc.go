// Package sqlitedb opens the SQLite databases used by the job queue and the
// article store.
//
// Open applies the WAL, foreign key, and busy timeout pragmas, creates the
// embedded schema on first use, and refuses databases whose recorded schema
// version differs from the caller's. Exec and RetryOnBusy retry statements
// that fail with SQLITE_BUSY using a short exponential backoff.
package sqlitedb
