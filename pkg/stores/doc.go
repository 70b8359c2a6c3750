// Package stores persists the reconciliation run journal. It provides a
// SQLite-backed store with WAL mode and embedded migrations, recording one
// row per CLI invocation plus an append-only event log of the actions each
// run took.
package stores
