// Package worker drains the notification queue into the pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/accelstream/internal/adapters/mq/queue"
	"github.com/okian/accelstream/internal/domain/decode"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

// Handler consumes one notification. The stream pipeline implements it.
type Handler interface {
	OnNotification(ctx context.Context, n queue.Notification) error
}

// Queue defines how the worker receives notifications.
type Queue interface {
	Dequeue() <-chan queue.Notification
}

// Worker delivers queued notifications to a handler.
type Worker interface {
	// Run consumes until the queue is closed and drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown closes the queue if it can be closed and waits for Run to
	// finish draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the single consumer of the queue. Running exactly one
// keeps the handler free of concurrent calls and preserves arrival order.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, h Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		handler: h,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			w.process(ctx, n)
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, n queue.Notification) {
	err := w.handler.OnNotification(ctx, n)
	if err == nil {
		return
	}
	// Bad payloads are routine on a radio link; anything else is worth a
	// louder log line.
	if errors.Is(err, decode.ErrDecode) {
		w.logger.Debug(ctx, "dropped notification",
			logger.String("peripheral", n.Source),
			logger.Error(err))
		return
	}
	w.logger.Error(ctx, "error processing notification",
		logger.String("peripheral", n.Source),
		logger.Error(err))
}

// Shutdown closes the queue and waits for the backlog to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	if closer, ok := w.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			w.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
