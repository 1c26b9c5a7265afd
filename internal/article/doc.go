// Package article models the article record and the user-owned context the
// pipeline reads (preferences and style profiles), and provides the record
// store backends.
//
// A Store is opened with Open, which picks the SQLite or MongoDB backend from
// configuration. Update is an overwrite-merge: only the fields set on the
// Update value are written, plus updated_at.
package article
