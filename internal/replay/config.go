// Package replay re-sends a recorded session to a running service as
// notifications over HTTP, for load and regression testing.
package replay

import "time"

// Wire shapes a recording can be replayed as.
const (
	WirePacked  = "packed"
	WirePerAxis = "per_axis"
)

// Payload encodings for per-axis replay.
const (
	EncodingText   = "text"
	EncodingBinary = "binary"
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL  string        // Base URL of the service
	File     string        // Recording to replay
	Source   string        // Source identity sent with every notification
	WireMode string        // packed or per_axis
	Encoding string        // text or binary (per_axis only)
	Rate     float64       // Samples per second; 0 sends as fast as possible
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every rejected notification
}

// Notification is the body of POST /notifications.
type Notification struct {
	Source   string `json:"source,omitempty"`
	Axis     string `json:"axis,omitempty"`
	Payload  string `json:"payload"`
	Encoding string `json:"encoding,omitempty"`
}

// Stats holds replay statistics.
type Stats struct {
	Samples      int
	Submitted    int
	Accepted     int
	Backpressure int
	Failed       int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
