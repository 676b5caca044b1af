// Package assemble turns a stream of packed or per-axis updates into
// complete samples.
//
// An Assembler is owned by a single pipeline and is not safe for
// concurrent use; callers serialize updates (see the mq worker).
package assemble

import (
	"context"
	"fmt"

	"github.com/okian/accelstream/internal/domain/decode"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

// Mode is the wire shape of incoming updates.
type Mode string

// Wire shapes.
const (
	ModePacked  Mode = "packed"
	ModePerAxis Mode = "per_axis"
)

// ParseMode validates a configured wire shape.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePacked, ModePerAxis:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

const (
	defaultMaxInFlight = 1
	defaultMaxSources  = 16
)

// partial holds up to three axis values of a sample under construction.
type partial struct {
	values [model.NumFeatures]float64
	filled [model.NumFeatures]bool
	count  int
}

func (p *partial) set(idx int, v float64) {
	p.values[idx] = v
	p.filled[idx] = true
	p.count++
}

func (p *partial) complete() bool { return p.count == model.NumFeatures }

// sourceState is the FIFO of open partials for one source.
type sourceState struct {
	partials []*partial
	touched  uint64
}

// Assembler converts updates into complete samples.
type Assembler struct {
	mode        Mode
	decoder     *decode.Decoder
	maxInFlight int
	maxSources  int

	sources map[string]*sourceState
	clock   uint64
	open    int

	evictions int
	logger    logger.Logger
}

// New creates an assembler. Defaults: packed mode, one in-flight partial
// per source, 16 sources.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		mode:        ModePacked,
		decoder:     decode.New(),
		maxInFlight: defaultMaxInFlight,
		maxSources:  defaultMaxSources,
		sources:     make(map[string]*sourceState),
		logger:      logger.Get().Named("assembler"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mode returns the configured wire shape.
func (a *Assembler) Mode() Mode { return a.mode }

// Assemble consumes one update. It returns the completed sample and true
// when this update finished one. A decode failure drops the update and
// leaves in-flight state untouched.
func (a *Assembler) Assemble(ctx context.Context, n model.Notification) (model.Sample, bool, error) {
	if a.mode == ModePacked {
		v, err := a.decoder.Triple(n.Payload)
		if err != nil {
			return model.Sample{}, false, err
		}
		return model.Sample{X: v[0], Y: v[1], Z: v[2], Source: n.Source}, true, nil
	}

	axis := n.Axis
	var (
		v   float64
		err error
	)
	if axis == model.AxisNone {
		axis, v, err = a.decoder.Tagged(n.Payload)
	} else {
		v, err = a.decoder.Scalar(n.Payload)
	}
	if err != nil {
		return model.Sample{}, false, err
	}
	return a.add(ctx, n.Source, axis, v)
}

// add places v into the first open partial of source whose slot for axis
// is empty, opening a new partial when none has room.
func (a *Assembler) add(ctx context.Context, source string, axis model.Axis, v float64) (model.Sample, bool, error) {
	idx := axis.Index()
	if idx < 0 {
		return model.Sample{}, false, fmt.Errorf("%w: axis %s", decode.ErrDecode, axis)
	}

	st := a.state(ctx, source)
	a.clock++
	st.touched = a.clock

	for i, p := range st.partials {
		if p.filled[idx] {
			continue
		}
		p.set(idx, v)
		if !p.complete() {
			return model.Sample{}, false, nil
		}
		st.partials = append(st.partials[:i], st.partials[i+1:]...)
		a.open--
		metrics.UpdatePartialsInFlight(a.open)
		return model.Sample{X: p.values[0], Y: p.values[1], Z: p.values[2], Source: source}, true, nil
	}

	if len(st.partials) >= a.maxInFlight {
		oldest := st.partials[0]
		st.partials = st.partials[1:]
		a.open--
		a.evictions++
		metrics.RecordAssemblyEvictions("slot_overflow", 1)
		a.logger.Warn(ctx, "evicting incomplete sample",
			logger.String("peripheral", source),
			logger.String("axis", axis.String()),
			logger.Int("filled", oldest.count),
			logger.Error(ErrAssemblyInconsistency))
	}

	p := &partial{}
	p.set(idx, v)
	st.partials = append(st.partials, p)
	a.open++
	metrics.UpdatePartialsInFlight(a.open)
	return model.Sample{}, false, nil
}

// state returns the state for source, evicting the least recently
// touched source when the source limit is reached.
func (a *Assembler) state(ctx context.Context, source string) *sourceState {
	if st, ok := a.sources[source]; ok {
		return st
	}
	if len(a.sources) >= a.maxSources {
		var (
			victim string
			oldest *sourceState
		)
		for k, st := range a.sources {
			if oldest == nil || st.touched < oldest.touched {
				victim, oldest = k, st
			}
		}
		if n := len(oldest.partials); n > 0 {
			a.open -= n
			a.evictions += n
			metrics.RecordAssemblyEvictions("source_limit", n)
			a.logger.Warn(ctx, "evicting stale source",
				logger.String("peripheral", victim),
				logger.Int("partials", n),
				logger.Error(ErrAssemblyInconsistency))
		}
		delete(a.sources, victim)
	}
	st := &sourceState{}
	a.sources[source] = st
	return st
}

// InFlight returns the number of open partial samples across sources.
func (a *Assembler) InFlight() int { return a.open }

// Evictions returns how many partials were evicted before completing.
func (a *Assembler) Evictions() int { return a.evictions }

// Discard drops all open partials, as happens when a collection session
// ends, and returns how many were dropped.
func (a *Assembler) Discard() int {
	n := a.open
	a.sources = make(map[string]*sourceState)
	a.open = 0
	metrics.RecordPartialsDiscarded(n)
	metrics.UpdatePartialsInFlight(0)
	return n
}
