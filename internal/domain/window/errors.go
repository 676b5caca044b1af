package window

import "errors"

// Sentinel kinds for windowing errors.
var (
	// ErrBufferNotReady is returned by Snapshot before the buffer is full.
	ErrBufferNotReady = errors.New("rolling buffer not full")
	// ErrNoData means a dataset build found no eligible recordings.
	ErrNoData = errors.New("no data to build windows from")
	// ErrInvalidSize rejects non-positive window sizes.
	ErrInvalidSize = errors.New("window size must be positive")
)
