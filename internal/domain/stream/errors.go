package stream

import "errors"

// Sentinel errors for router wiring.
var (
	// ErrUnknownMode is returned for a session mode other than live or record.
	ErrUnknownMode = errors.New("unknown session mode")
	// ErrNoStore means a record-mode router was built without a store.
	ErrNoStore = errors.New("record mode requires a store")
	// ErrNoClassifier means a live-mode router was built without a classifier.
	ErrNoClassifier = errors.New("live mode requires a classifier")
)
