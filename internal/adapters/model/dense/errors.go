package dense

import "errors"

// Sentinel kinds for model loading and inference.
var (
	ErrNotLoaded      = errors.New("model weights not loaded")
	ErrInvalidModel   = errors.New("invalid model file")
	ErrInputSize      = errors.New("input tensor size does not match model")
	ErrUnknownActivFn = errors.New("unknown activation function")
)
