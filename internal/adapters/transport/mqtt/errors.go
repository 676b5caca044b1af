package mqtt

import "errors"

// Sentinel kinds for the MQTT transport.
var (
	ErrNoBroker = errors.New("mqtt broker not configured")
	ErrNoTopics = errors.New("mqtt topics not configured")
	ErrConnect  = errors.New("mqtt connect failed")
)
