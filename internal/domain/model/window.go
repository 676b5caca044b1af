package model

// Window is an ordered run of consecutive samples, logical shape (len, 3).
type Window struct {
	Samples []Sample
}

// Len returns the number of samples in the window.
func (w Window) Len() int { return len(w.Samples) }

// Shape returns the logical (rows, features) shape.
func (w Window) Shape() [2]int { return [2]int{len(w.Samples), NumFeatures} }

// Features returns a row-major copy of the window values:
// x0, y0, z0, x1, y1, z1, ...
func (w Window) Features() []float64 {
	out := make([]float64, 0, len(w.Samples)*NumFeatures)
	for _, s := range w.Samples {
		out = append(out, s.X, s.Y, s.Z)
	}
	return out
}

// LabeledWindow pairs a window with a one-hot class label.
type LabeledWindow struct {
	Window
	Label []float64
}
