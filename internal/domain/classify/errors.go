package classify

import (
	"errors"
	"fmt"
)

// Sentinel kinds for classification errors.
var (
	// ErrNotReady means the classifier has not been loaded or trained yet.
	ErrNotReady = errors.New("classifier not ready")
	// ErrShapeMismatch means the classifier's declared input shape cannot
	// hold a (window, features) frame.
	ErrShapeMismatch = errors.New("classifier input shape mismatch")
	// ErrWindowSize means a window of the wrong length was offered.
	ErrWindowSize = errors.New("window length does not match look-back size")
	// ErrOutputSize means the classifier returned a vector that does not
	// cover the class table.
	ErrOutputSize = errors.New("classifier output size mismatch")
	// ErrOutputRange means a classifier value is not a probability in [0, 1].
	ErrOutputRange = errors.New("classifier output out of range")
	// ErrClassTable rejects class tables whose one-hot vectors are malformed.
	ErrClassTable = errors.New("invalid class table")
)

// ShapeMismatchError names the dimensions that disagree.
type ShapeMismatchError struct {
	Declared Shape
	Window   int
	Features int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("classifier declares input shape %s; want (1, %d, %d), (1, %d, %d, 1) or (1, %d)",
		e.Declared, e.Window, e.Features, e.Window, e.Features, e.Window*e.Features)
}

// Is reports ErrShapeMismatch so callers can use errors.Is.
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }
