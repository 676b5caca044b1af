package service

import "errors"

// Error constants.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNoModel    = errors.New("live mode requires model_file")
)
