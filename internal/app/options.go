package service

import (
	"github.com/okian/accelstream/internal/domain/classify"
	"github.com/okian/accelstream/internal/domain/stream"
	"github.com/okian/accelstream/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClassifier supplies a ready classifier instead of loading model_file.
func WithClassifier(c classify.Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithStore supplies the record sink instead of opening one from config.
// The service closes it on Stop.
func WithStore(st stream.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}
