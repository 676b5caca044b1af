// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// NumFeatures is the number of channels in a sample (x, y, z acceleration).
const NumFeatures = 3

// Sample is one complete three-axis accelerometer reading.
type Sample struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Source string  `json:"source,omitempty"` // originating peripheral handle, empty for single-source
}

// Values returns the axes in column order (x, y, z).
func (s Sample) Values() [NumFeatures]float64 {
	return [NumFeatures]float64{s.X, s.Y, s.Z}
}

func (s Sample) String() string {
	return fmt.Sprintf("x: %.3f y: %.3f z: %.3f", s.X, s.Y, s.Z)
}

// Axis tags a single-axis update.
type Axis int

// Axes. AxisNone marks a packed update carrying all three.
const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "none"
	}
}

// Index returns the zero-based column of the axis, or -1 for AxisNone.
func (a Axis) Index() int {
	if a < AxisX || a > AxisZ {
		return -1
	}
	return int(a - AxisX)
}

// ParseAxis maps "x", "y", "z" (any case) to an Axis. Empty maps to AxisNone.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AxisNone, nil
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return AxisNone, fmt.Errorf("unknown axis %q", s)
}

// Notification is what a transport hands to the pipeline for every
// notify event. Payload is []byte or string.
type Notification struct {
	Source  string
	Axis    Axis
	Payload any
}

// Prediction is a normalized classifier result.
type Prediction struct {
	Confidence float64   `json:"confidence"` // percent, 0..100
	Class      string    `json:"class"`
	Source     string    `json:"source,omitempty"`
	At         time.Time `json:"at"`
}

func (p Prediction) String() string {
	return fmt.Sprintf("Activity [%s] with certainty %.0f%%", p.Class, p.Confidence)
}
