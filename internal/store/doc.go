// Package store persists per-user validator enable flags and the history of
// finished analysis runs in SQLite.
package store
