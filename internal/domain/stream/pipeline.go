package stream

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/okian/accelstream/internal/domain/assemble"
	"github.com/okian/accelstream/internal/domain/decode"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

// Stats is a point-in-time view of pipeline counters.
type Stats struct {
	Notifications uint64 `json:"notifications"`
	Samples       uint64 `json:"samples"`
	DecodeErrors  uint64 `json:"decode_errors"`
	RouteErrors   uint64 `json:"route_errors"`
	Discarded     uint64 `json:"discarded"`
}

// Pipeline is the entry point transports feed: it assembles notifications
// into samples and routes them. OnNotification and Close must be called
// from a single goroutine; Stats may be read from any.
type Pipeline struct {
	assembler *assemble.Assembler
	router    *Router
	logger    logger.Logger

	notifications atomic.Uint64
	samples       atomic.Uint64
	decodeErrors  atomic.Uint64
	routeErrors   atomic.Uint64
	discarded     atomic.Uint64
}

// NewPipeline joins an assembler and a router.
func NewPipeline(a *assemble.Assembler, r *Router) *Pipeline {
	return &Pipeline{
		assembler: a,
		router:    r,
		logger:    logger.Get().Named("pipeline"),
	}
}

// OnNotification handles one transport notification. Errors are per
// notification; the pipeline stays usable after any of them.
func (p *Pipeline) OnNotification(ctx context.Context, n model.Notification) error {
	p.notifications.Add(1)

	s, ok, err := p.assembler.Assemble(ctx, n)
	if err != nil {
		p.decodeErrors.Add(1)
		metrics.RecordDecodeError(decodeReason(err))
		return err
	}
	if !ok {
		return nil
	}
	p.samples.Add(1)
	metrics.RecordSampleAssembled()

	if err := p.router.Route(ctx, s); err != nil {
		p.routeErrors.Add(1)
		return err
	}
	return nil
}

// Close ends the session: incomplete partials are dropped and the store,
// if any, is flushed.
func (p *Pipeline) Close(ctx context.Context) error {
	if n := p.assembler.Discard(); n > 0 {
		p.discarded.Add(uint64(n))
		p.logger.Debug(ctx, "discarded incomplete samples", logger.Int("count", n))
	}
	return p.router.Flush(ctx)
}

// Router returns the sink router.
func (p *Pipeline) Router() *Router { return p.router }

// Stats returns the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Notifications: p.notifications.Load(),
		Samples:       p.samples.Load(),
		DecodeErrors:  p.decodeErrors.Load(),
		RouteErrors:   p.routeErrors.Load(),
		Discarded:     p.discarded.Load(),
	}
}

func decodeReason(err error) string {
	var de *decode.DecodeError
	if errors.As(err, &de) {
		return de.Reason
	}
	return decode.ReasonAxis
}
