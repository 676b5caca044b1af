package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/accelstream/internal/domain/model"
)

func note(i int) model.Notification {
	return model.Notification{Source: "nano", Payload: fmt.Sprintf("%d;0;0", i)}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, note(1)); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	n := <-q.Dequeue()
	if n.Payload != "1;0;0" {
		t.Errorf("expected first notification, got %v", n.Payload)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(ctx, note(i)); err != nil {
			t.Errorf("expected enqueue to succeed, got %v", err)
		}
	}

	if err := q.Enqueue(ctx, note(3)); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if err := q.Enqueue(ctx, note(i)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	_ = q.Close()

	i := 0
	for n := range q.Dequeue() {
		if want := fmt.Sprintf("%d;0;0", i); n.Payload != want {
			t.Fatalf("position %d: expected %s, got %v", i, want, n.Payload)
		}
		i++
	}
	if i != 50 {
		t.Errorf("expected 50 notifications after close, got %d", i)
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	producers := 10
	perProducer := 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for q.Enqueue(ctx, note(j)) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	consumed := make(chan int)
	go func() {
		n := 0
		for range q.Dequeue() {
			n++
		}
		consumed <- n
	}()

	wg.Wait()
	_ = q.Close()

	if n := <-consumed; n != producers*perProducer {
		t.Errorf("expected %d consumed, got %d", producers*perProducer, n)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	_ = q.Enqueue(ctx, note(1))
	_ = q.Enqueue(ctx, note(2))

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, note(3)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	drained := 0
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case _, ok := <-q.Dequeue():
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained notifications, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
}
