package service

import (
	"context"
	"sync"

	"github.com/okian/accelstream/internal/domain/model"
)

const subscriberBuffer = 16

// predictionHub keeps the latest prediction and fans predictions out to
// subscribers. A subscriber that falls behind misses predictions rather
// than stalling the worker.
type predictionHub struct {
	mu     sync.Mutex
	latest model.Prediction
	has    bool
	next   int
	subs   map[int]chan model.Prediction
	closed bool
}

func newPredictionHub() *predictionHub {
	return &predictionHub{subs: make(map[int]chan model.Prediction)}
}

// OnPrediction implements stream.PredictionObserver.
func (h *predictionHub) OnPrediction(_ context.Context, p model.Prediction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest, h.has = p, true
	for _, ch := range h.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

func (h *predictionHub) Latest() (model.Prediction, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.has
}

func (h *predictionHub) Subscribe() (<-chan model.Prediction, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan model.Prediction, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *predictionHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *predictionHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
