package assemble

import (
	"github.com/okian/accelstream/internal/domain/decode"
	"github.com/okian/accelstream/pkg/logger"
)

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithMode sets the wire shape.
func WithMode(mode Mode) Option {
	return func(a *Assembler) {
		a.mode = mode
	}
}

// WithDecoder sets the payload decoder.
func WithDecoder(d *decode.Decoder) Option {
	return func(a *Assembler) {
		if d != nil {
			a.decoder = d
		}
	}
}

// WithMaxInFlight bounds the open partial samples per source. One keeps a
// single partial per source; larger values let overlapping samples from
// the same source coexist.
func WithMaxInFlight(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxInFlight = n
		}
	}
}

// WithMaxSources bounds the number of sources with open partials.
func WithMaxSources(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxSources = n
		}
	}
}

// WithLogger sets the logger used for eviction warnings.
func WithLogger(l logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}
