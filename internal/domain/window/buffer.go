// Package window builds look-back windows from sample sequences, either
// one at a time from a rolling buffer (live) or all at once (batch).
package window

import (
	"fmt"

	"github.com/okian/accelstream/internal/domain/model"
)

// Buffer is a bounded FIFO holding the most recent samples. Pushing into
// a full buffer evicts the oldest sample. Not safe for concurrent use.
type Buffer struct {
	ring  []model.Sample
	head  int // index of the oldest sample
	count int
}

// NewBuffer creates a buffer holding up to capacity samples.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, capacity)
	}
	return &Buffer{ring: make([]model.Sample, capacity)}, nil
}

// Push appends s, evicting the oldest sample when at capacity.
func (b *Buffer) Push(s model.Sample) {
	capacity := len(b.ring)
	if b.count < capacity {
		b.ring[(b.head+b.count)%capacity] = s
		b.count++
		return
	}
	b.ring[b.head] = s
	b.head = (b.head + 1) % capacity
}

// IsFull reports whether the buffer holds capacity samples.
func (b *Buffer) IsFull() bool { return b.count == len(b.ring) }

// Len returns the number of buffered samples.
func (b *Buffer) Len() int { return b.count }

// Cap returns the buffer capacity (the look-back window size).
func (b *Buffer) Cap() int { return len(b.ring) }

// Snapshot returns a copy of the contents, oldest first. It fails with
// ErrBufferNotReady until the buffer is full.
func (b *Buffer) Snapshot() (model.Window, error) {
	if !b.IsFull() {
		return model.Window{}, fmt.Errorf("%w: %d of %d samples", ErrBufferNotReady, b.count, len(b.ring))
	}
	out := make([]model.Sample, b.count)
	for i := range out {
		out[i] = b.ring[(b.head+i)%len(b.ring)]
	}
	return model.Window{Samples: out}, nil
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	clear(b.ring)
	b.head = 0
	b.count = 0
}
