package csvstore

import "errors"

// Sentinel kinds for CSV storage errors.
var (
	ErrClosed    = errors.New("csv store closed")
	ErrBadHeader = errors.New("unrecognized recording header")
	ErrBadRow    = errors.New("malformed recording row")
)
