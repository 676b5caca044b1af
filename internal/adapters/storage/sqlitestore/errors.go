package sqlitestore

import "errors"

// Sentinel kinds for SQLite storage errors.
var (
	ErrSessionClosed = errors.New("recording session closed")
	ErrNoSession     = errors.New("recording session not found")
)
