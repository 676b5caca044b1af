// Package stream routes assembled samples to their session sink: a store
// while recording, or a rolling buffer and classifier while live.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/accelstream/internal/domain/classify"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/internal/domain/window"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

// Mode selects where samples go.
type Mode string

const (
	// ModeLive buffers samples and classifies every full window.
	ModeLive Mode = "live"
	// ModeRecord appends samples to a store.
	ModeRecord Mode = "record"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLive, ModeRecord:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Store is a record-mode sink.
type Store interface {
	Write(ctx context.Context, s model.Sample) error
	Flush(ctx context.Context) error
	Close() error
}

// WindowClassifier turns a full window into a prediction.
type WindowClassifier interface {
	Classify(ctx context.Context, w model.Window) (model.Prediction, error)
}

// PredictionObserver receives every live prediction.
type PredictionObserver interface {
	OnPrediction(ctx context.Context, p model.Prediction)
}

// ObserverFunc adapts a function to PredictionObserver.
type ObserverFunc func(ctx context.Context, p model.Prediction)

// OnPrediction calls f.
func (f ObserverFunc) OnPrediction(ctx context.Context, p model.Prediction) { f(ctx, p) }

// Router delivers samples to the session sink. Not safe for concurrent use.
type Router struct {
	mode       Mode
	store      Store
	classifier WindowClassifier
	windowSize int
	buffer     *window.Buffer
	observers  []PredictionObserver
	logger     logger.Logger
}

// NewRouter builds a router for mode. Record mode needs WithStore, live
// mode needs WithClassifier.
func NewRouter(mode Mode, opts ...Option) (*Router, error) {
	r := &Router{
		mode:   mode,
		logger: logger.Get().Named("router"),
	}
	for _, opt := range opts {
		opt(r)
	}

	switch mode {
	case ModeRecord:
		if r.store == nil {
			return nil, ErrNoStore
		}
	case ModeLive:
		if r.classifier == nil {
			return nil, ErrNoClassifier
		}
		buf, err := window.NewBuffer(r.windowSize)
		if err != nil {
			return nil, err
		}
		r.buffer = buf
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return r, nil
}

// Mode returns the session mode.
func (r *Router) Mode() Mode { return r.mode }

// Buffered returns the number of samples in the live buffer.
func (r *Router) Buffered() int {
	if r.buffer == nil {
		return 0
	}
	return r.buffer.Len()
}

// Route delivers one complete sample.
func (r *Router) Route(ctx context.Context, s model.Sample) error {
	if r.mode == ModeRecord {
		if err := r.store.Write(ctx, s); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("store write: %w", err)
		}
		metrics.RecordStoreWrite()
		return nil
	}
	return r.live(ctx, s)
}

func (r *Router) live(ctx context.Context, s model.Sample) error {
	r.buffer.Push(s)
	metrics.UpdateBufferOccupancy(r.buffer.Len())

	win, err := r.buffer.Snapshot()
	if errors.Is(err, window.ErrBufferNotReady) {
		r.logger.Debug(ctx, "waiting for sufficient data",
			logger.Int("have", r.buffer.Len()),
			logger.Int("need", r.buffer.Cap()))
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	p, err := r.classifier.Classify(ctx, win)
	if err != nil {
		metrics.RecordClassifyError(classifyReason(err))
		return fmt.Errorf("classify: %w", err)
	}
	metrics.RecordClassification(p.Class, p.Confidence, float64(time.Since(start).Microseconds())/1000)

	for _, o := range r.observers {
		o.OnPrediction(ctx, p)
	}
	return nil
}

// Flush flushes the store in record mode and is a no-op otherwise.
func (r *Router) Flush(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Flush(ctx); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("store flush: %w", err)
	}
	return nil
}

func classifyReason(err error) string {
	switch {
	case errors.Is(err, classify.ErrNotReady):
		return "not_ready"
	case errors.Is(err, classify.ErrWindowSize):
		return "window_size"
	case errors.Is(err, classify.ErrOutputSize):
		return "output_size"
	case errors.Is(err, classify.ErrOutputRange):
		return "output_range"
	default:
		return "predict"
	}
}
