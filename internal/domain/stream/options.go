package stream

import (
	"github.com/okian/accelstream/pkg/logger"
)

// Option configures a Router.
type Option func(*Router)

// WithStore sets the record-mode sink.
func WithStore(s Store) Option {
	return func(r *Router) {
		r.store = s
	}
}

// WithClassifier sets the live-mode classifier and the look-back window
// size its rolling buffer holds.
func WithClassifier(c WindowClassifier, windowSize int) Option {
	return func(r *Router) {
		r.classifier = c
		r.windowSize = windowSize
	}
}

// WithObserver registers a prediction observer. May be given more than once.
func WithObserver(o PredictionObserver) Option {
	return func(r *Router) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}
