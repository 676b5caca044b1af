package mqtt

import (
	"context"
	"time"

	"github.com/okian/accelstream/pkg/logger"
)

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithBroker sets the broker URL, e.g. tcp://localhost:1883.
func WithBroker(url string) Option {
	return func(s *Subscriber) {
		s.broker = url
	}
}

// WithClientID sets the client id prefix. A random suffix is appended so
// several instances can share a broker.
func WithClientID(id string) Option {
	return func(s *Subscriber) {
		if id != "" {
			s.clientID = id
		}
	}
}

// WithTopics sets the topic filters to subscribe to.
func WithTopics(topics ...string) Option {
	return func(s *Subscriber) {
		s.topics = append([]string(nil), topics...)
	}
}

// WithQoS sets the subscription quality of service.
func WithQoS(qos byte) Option {
	return func(s *Subscriber) {
		if qos <= 2 {
			s.qos = qos
		}
	}
}

// WithPredictionTopic subscribes to the peripheral's own prediction
// channel and passes each decoded class name to fn.
func WithPredictionTopic(topic string, fn func(ctx context.Context, source, class string)) Option {
	return func(s *Subscriber) {
		s.predictionTopic = topic
		s.onPrediction = fn
	}
}

// WithConnectTimeout bounds Start's wait for the broker.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Subscriber) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithLogger sets the transport logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}
