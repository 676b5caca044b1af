package replay

import "errors"

// Error constants.
var (
	ErrWireMode  = errors.New("unknown wire mode")
	ErrEncoding  = errors.New("unknown encoding")
	ErrUnhealthy = errors.New("service health check failed")
)
