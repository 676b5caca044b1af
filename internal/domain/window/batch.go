package window

import (
	"fmt"

	"github.com/okian/accelstream/internal/domain/model"
)

// Windower materializes stride-1 look-back frames from recorded samples.
type Windower struct {
	size int
}

// NewWindower creates a windower producing frames of size samples.
func NewWindower(size int) (*Windower, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Windower{size: size}, nil
}

// Size returns the frame length.
func (w *Windower) Size() int { return w.size }

// Count returns how many frames Build produces for n samples.
func (w *Windower) Count(n int) int {
	return max(0, n-w.size+1)
}

// Build returns max(0, len(samples)-size+1) frames; frame i covers
// samples[i:i+size]. Every frame gets its own copy of the samples and of
// label. Input shorter than the frame size yields no frames.
func (w *Windower) Build(samples []model.Sample, label []float64) []model.LabeledWindow {
	n := w.Count(len(samples))
	if n == 0 {
		return nil
	}
	out := make([]model.LabeledWindow, n)
	for i := range out {
		frame := make([]model.Sample, w.size)
		copy(frame, samples[i:i+w.size])
		lbl := make([]float64, len(label))
		copy(lbl, label)
		out[i] = model.LabeledWindow{Window: model.Window{Samples: frame}, Label: lbl}
	}
	return out
}
