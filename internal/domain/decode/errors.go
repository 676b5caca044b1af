package decode

import (
	"errors"
	"fmt"
)

// ErrDecode is the sentinel kind for malformed payloads.
var ErrDecode = errors.New("decode failed")

// Failure reasons carried by DecodeError; also used as metric labels.
const (
	ReasonPayloadType  = "payload_type"
	ReasonEmpty        = "empty"
	ReasonFieldCount   = "field_count"
	ReasonNotANumber   = "not_a_number"
	ReasonBinaryLength = "binary_length"
	ReasonAxis         = "axis"
)

// DecodeError describes a payload that could not be decoded. The stream
// drops the update and continues.
type DecodeError struct {
	Reason  string
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s: payload %q", e.Reason, e.Payload)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrDecode so callers can use errors.Is.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

func newError(reason string, payload []byte, err error) *DecodeError {
	const maxEcho = 64
	p := payload
	if len(p) > maxEcho {
		p = p[:maxEcho]
	}
	return &DecodeError{Reason: reason, Payload: string(p), Err: err}
}
