// Package service wires configuration, transports and the stream pipeline
// into a running session, and implements the dependencies required by the
// HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/accelstream/internal/adapters/model/dense"
	"github.com/okian/accelstream/internal/adapters/mq/queue"
	"github.com/okian/accelstream/internal/adapters/mq/worker"
	"github.com/okian/accelstream/internal/adapters/transport/mqtt"
	"github.com/okian/accelstream/internal/config"
	"github.com/okian/accelstream/internal/domain/assemble"
	"github.com/okian/accelstream/internal/domain/classify"
	"github.com/okian/accelstream/internal/domain/decode"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/internal/domain/stream"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

// Service runs one live or record session.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	queue    *queue.InMemoryQueue
	worker   *worker.InMemoryWorker
	pipeline *stream.Pipeline
	mqtt     *mqtt.Subscriber
	hub      *predictionHub

	// Live or record backends, injected or built from config
	classifier classify.Classifier
	store      stream.Store
	storeDesc  string

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service for cfg. Nothing runs until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
		hub: newPredictionHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Start builds the pipeline and begins consuming notifications.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	mode, err := stream.ParseMode(s.cfg.Mode)
	if err != nil {
		return err
	}
	wire, err := assemble.ParseMode(s.cfg.WireMode)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "starting session",
		logger.String("mode", string(mode)),
		logger.String("wire_mode", string(wire)),
		logger.Int("window", s.cfg.LookBackWindowSize))

	dec := decode.New(
		decode.WithDelimiter(s.cfg.Delimiter),
		decode.WithEncoding(decode.Encoding(s.cfg.Encoding)),
		decode.WithTrailingSentinel(s.cfg.TrailingSentinel),
	)
	asm := assemble.New(
		assemble.WithMode(wire),
		assemble.WithDecoder(dec),
		assemble.WithMaxInFlight(s.cfg.MaxInFlight),
		assemble.WithMaxSources(s.cfg.MaxSources),
		assemble.WithLogger(s.logger.Named("assembler")),
	)

	routerOpts := []stream.Option{stream.WithLogger(s.logger.Named("router"))}
	switch mode {
	case stream.ModeLive:
		adapter, err := s.buildAdapter()
		if err != nil {
			return err
		}
		routerOpts = append(routerOpts,
			stream.WithClassifier(adapter, s.cfg.LookBackWindowSize),
			stream.WithObserver(s.hub),
			stream.WithObserver(stream.ObserverFunc(s.logPrediction)),
		)
	case stream.ModeRecord:
		if s.store == nil {
			st, desc, err := openStore(ctx, s.cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			s.store, s.storeDesc = st, desc
		}
		routerOpts = append(routerOpts, stream.WithStore(s.store))
		s.logger.Info(ctx, "recording",
			logger.String("activity", s.cfg.Activity),
			logger.String("store", s.storeDesc))
	}

	router, err := stream.NewRouter(mode, routerOpts...)
	if err != nil {
		s.closeStore(ctx)
		return err
	}
	s.pipeline = stream.NewPipeline(asm, router)

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s.pipeline,
		worker.WithName("pipeline"),
		worker.WithLogger(s.logger),
	)
	// the worker stops when the queue is closed and drained, not on ctx
	go s.worker.Run(context.WithoutCancel(ctx))

	if s.cfg.MQTT.Broker != "" {
		if err := s.startMQTT(ctx); err != nil {
			_ = s.worker.Shutdown(ctx)
			s.closeStore(ctx)
			return err
		}
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "session started",
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Bool("mqtt", s.mqtt != nil))
	return nil
}

func (s *Service) buildAdapter() (*classify.Adapter, error) {
	if s.classifier == nil {
		m, err := LoadModel(s.cfg)
		if err != nil {
			return nil, err
		}
		s.classifier = m
	}
	return NewAdapter(s.cfg, s.classifier)
}

// LoadModel loads the dense classifier named by cfg.ModelFile.
func LoadModel(cfg *config.Config) (*dense.Model, error) {
	if cfg.ModelFile == "" {
		return nil, ErrNoModel
	}
	m := dense.New()
	if err := m.LoadFile(cfg.ModelFile); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return m, nil
}

// NewAdapter wraps c with the configured class table and window shape.
func NewAdapter(cfg *config.Config, c classify.Classifier) (*classify.Adapter, error) {
	table, err := cfg.ClassTable()
	if err != nil {
		return nil, err
	}
	return classify.NewAdapter(c, table, cfg.LookBackWindowSize, cfg.NumFeatures)
}

func (s *Service) startMQTT(ctx context.Context) error {
	opts := []mqtt.Option{
		mqtt.WithBroker(s.cfg.MQTT.Broker),
		mqtt.WithClientID(s.cfg.MQTT.ClientID),
		mqtt.WithTopics(s.cfg.MQTT.Topics...),
		mqtt.WithQoS(byte(s.cfg.MQTT.QoS)),
		mqtt.WithLogger(s.logger.Named("mqtt")),
	}
	if s.cfg.MQTT.PredictionTopic != "" {
		opts = append(opts, mqtt.WithPredictionTopic(s.cfg.MQTT.PredictionTopic, s.onPeripheralPrediction))
	}
	sub := mqtt.New(s.queue, opts...)
	if err := sub.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt: %w", err)
	}
	s.mqtt = sub
	return nil
}

// onPeripheralPrediction logs a class computed on the peripheral itself.
func (s *Service) onPeripheralPrediction(ctx context.Context, source, class string) {
	s.logger.Info(ctx, "peripheral prediction",
		logger.String("peripheral", source),
		logger.String("class", class))
}

func (s *Service) logPrediction(ctx context.Context, p model.Prediction) {
	s.logger.Info(ctx, p.String(), logger.String("peripheral", p.Source))
}

// Stop ends the session: transports stop, the queue drains through the
// pipeline, partial samples are discarded and the store is flushed and
// closed. ctx bounds the drain.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping session...")

	if s.mqtt != nil {
		s.mqtt.Stop(ctx)
	}

	var errs []error
	if err := s.worker.Shutdown(ctx); err != nil {
		// the worker may still be inside the pipeline
		errs = append(errs, err)
	} else if err := s.pipeline.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	s.closeStore(ctx)
	s.hub.Close()

	st := s.pipeline.Stats()
	s.started = false
	s.logger.Info(ctx, "session stopped",
		logger.Duration("elapsed", time.Since(s.startedAt)),
		logger.Any("notifications", st.Notifications),
		logger.Any("samples", st.Samples),
		logger.Any("decode_errors", st.DecodeErrors),
		logger.Any("discarded", st.Discarded))

	if len(errs) > 0 {
		return fmt.Errorf("stop: %w", errors.Join(errs...))
	}
	return nil
}

func (s *Service) closeStore(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		metrics.RecordStoreError()
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.store = nil
}

// Enqueue submits a notification for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, n model.Notification) error {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return ErrNotStarted
	}
	if err := q.Enqueue(ctx, n); err != nil {
		return err
	}
	metrics.UpdateQueueSize(q.Len())
	return nil
}

// LatestPrediction returns the most recent live prediction.
func (s *Service) LatestPrediction() (model.Prediction, bool) {
	return s.hub.Latest()
}

// SubscribePredictions streams live predictions until cancel is called or
// the session stops.
func (s *Service) SubscribePredictions() (<-chan model.Prediction, func()) {
	return s.hub.Subscribe()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":  s.started,
		"mode":     s.cfg.Mode,
		"wireMode": s.cfg.WireMode,
		"window":   s.cfg.LookBackWindowSize,
	}
	if s.storeDesc != "" {
		stats["store"] = s.storeDesc
	}
	if s.pipeline != nil {
		st := s.pipeline.Stats()
		stats["notifications"] = st.Notifications
		stats["samples"] = st.Samples
		stats["decodeErrors"] = st.DecodeErrors
		stats["routeErrors"] = st.RouteErrors
		stats["discarded"] = st.Discarded
	}
	if s.queue != nil {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	if p, ok := s.hub.Latest(); ok {
		stats["prediction"] = p
	}
	stats["subscribers"] = s.hub.Subscribers()
	if s.started {
		stats["uptime"] = time.Since(s.startedAt).Round(time.Millisecond).String()
	}
	return stats
}
