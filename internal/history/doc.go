// Package history records run outcomes in SQLite.
//
// Each top-level input becomes one row carrying its status, error kind,
// outputs and duration; each work unit executed for that input is stored
// beneath it. The database is an append-only log: schema changes bump
// schemaVersion and users delete the file to adopt them.
package history
