// Package queue hands notifications from transport goroutines to the single
// pipeline worker.
//
// Transports (MQTT callbacks, HTTP handlers) run on many goroutines; the
// queue serializes them into one FIFO so the pipeline only ever sees one
// caller.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/metrics"
)

const defaultQueueCapacity = 4096

// Notification is the payload type flowing through the queue.
type Notification = model.Notification

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notification without blocking. It fails with ErrFull
	// or ErrClosed.
	Enqueue(ctx context.Context, n Notification) error

	// Dequeue returns the channel the consumer reads from. It is closed
	// once the queue is closed and drained.
	Dequeue() <-chan Notification

	// Len returns the current number of queued notifications.
	Len() int

	// Close stops accepting notifications. Already queued ones are still
	// delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	notifications chan Notification
	capacity      int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.notifications = make(chan Notification, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a notification to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notification) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}

	select {
	case q.notifications <- n:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.notifications))
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue: %w", ctx.Err())
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return fmt.Errorf("%w: capacity %d", ErrFull, q.capacity)
	}
}

// Dequeue returns the consumer channel.
func (q *InMemoryQueue) Dequeue() <-chan Notification {
	return q.notifications
}

// Len returns the current number of queued notifications.
func (q *InMemoryQueue) Len() int {
	size := len(q.notifications)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops the queue. Calling it more than once is safe.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.notifications)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
