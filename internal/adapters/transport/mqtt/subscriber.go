// Package mqtt feeds accelerometer notifications from an MQTT broker into
// the notification queue.
//
// A gateway bridging the peripheral's radio link publishes each
// characteristic notification as one MQTT message. Topics follow
// <prefix>/<source> for packed or axis-tagged payloads and
// <prefix>/<source>/<axis> for per-axis characteristics.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/okian/accelstream/internal/domain/decode"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

const (
	transportName         = "mqtt"
	defaultClientID       = "accelstream"
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// Sink accepts notifications. The in-memory queue implements it.
type Sink interface {
	Enqueue(ctx context.Context, n model.Notification) error
}

// Subscriber owns one broker connection.
type Subscriber struct {
	sink Sink

	broker          string
	clientID        string
	topics          []string
	qos             byte
	predictionTopic string
	onPrediction    func(ctx context.Context, source, class string)
	connectTimeout  time.Duration

	client paho.Client
	ctx    context.Context
	logger logger.Logger
}

// New creates a subscriber delivering into sink.
func New(sink Sink, opts ...Option) *Subscriber {
	s := &Subscriber{
		sink:           sink,
		clientID:       defaultClientID,
		connectTimeout: defaultConnectTimeout,
		ctx:            context.Background(),
		logger:         logger.Get().Named("mqtt"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClientID returns the id presented to the broker.
func (s *Subscriber) ClientID() string {
	return s.clientID
}

// Start connects and subscribes. Subscriptions are renewed on every
// reconnect.
func (s *Subscriber) Start(ctx context.Context) error {
	if s.broker == "" {
		return ErrNoBroker
	}
	if len(s.topics) == 0 {
		return ErrNoTopics
	}
	s.ctx = ctx

	id := s.clientID + "-" + uuid.NewString()[:8]
	opts := paho.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(id).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(s.connectTimeout).
		SetOnConnectHandler(s.subscribe).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			s.logger.Warn(ctx, "connection lost", logger.Error(err))
		})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(s.connectTimeout) {
		return fmt.Errorf("%w: %s: timed out after %s", ErrConnect, s.broker, s.connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnect, s.broker, err)
	}
	s.logger.Info(ctx, "connected to broker",
		logger.String("broker", s.broker),
		logger.String("client_id", id))
	return nil
}

func (s *Subscriber) subscribe(c paho.Client) {
	filters := make(map[string]byte, len(s.topics)+1)
	for _, t := range s.topics {
		filters[t] = s.qos
	}
	if s.predictionTopic != "" {
		filters[s.predictionTopic] = s.qos
	}

	token := c.SubscribeMultiple(filters, func(_ paho.Client, msg paho.Message) {
		s.Deliver(s.ctx, msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Error(s.ctx, "subscribe failed", logger.Error(err))
		return
	}
	s.logger.Info(s.ctx, "subscribed", logger.Int("topics", len(filters)))
}

// Deliver converts one message into a notification and enqueues it. It is
// the broker callback and is safe for concurrent use.
func (s *Subscriber) Deliver(ctx context.Context, topic string, payload []byte) {
	source, axis := ParseTopic(topic)

	if s.predictionTopic != "" && topicMatches(s.predictionTopic, topic) {
		class, err := decode.Prediction(payload)
		if err != nil {
			s.logger.Debug(ctx, "bad prediction payload", logger.String("topic", topic), logger.Error(err))
			return
		}
		if s.onPrediction != nil {
			s.onPrediction(ctx, source, class)
		}
		return
	}

	metrics.RecordNotification(transportName)
	n := model.Notification{
		Source:  source,
		Axis:    axis,
		Payload: append([]byte(nil), payload...),
	}
	if err := s.sink.Enqueue(ctx, n); err != nil {
		s.logger.Warn(ctx, "notification dropped",
			logger.String("topic", topic),
			logger.Error(err))
	}
}

// Stop unsubscribes and disconnects.
func (s *Subscriber) Stop(ctx context.Context) {
	if s.client == nil || !s.client.IsConnected() {
		return
	}
	topics := append([]string(nil), s.topics...)
	if s.predictionTopic != "" {
		topics = append(topics, s.predictionTopic)
	}
	if token := s.client.Unsubscribe(topics...); !token.WaitTimeout(time.Second) {
		s.logger.Warn(ctx, "unsubscribe timed out")
	}
	s.client.Disconnect(disconnectQuiesceMs)
	s.logger.Info(ctx, "disconnected from broker")
}

// ParseTopic maps a topic to a source identity and axis. A trailing x, y
// or z segment names the axis and the segment before it the source;
// otherwise the last segment is the source and the axis is in-band or the
// payload is packed.
func ParseTopic(topic string) (string, model.Axis) {
	segs := strings.Split(strings.Trim(topic, "/"), "/")
	last := segs[len(segs)-1]
	if len(segs) >= 2 && len(last) == 1 {
		if axis, err := model.ParseAxis(last); err == nil && axis != model.AxisNone {
			return segs[len(segs)-2], axis
		}
	}
	return last, model.AxisNone
}

// topicMatches reports whether topic matches filter, honoring the + and #
// wildcards.
func topicMatches(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")
	for i, seg := range f {
		if seg == "#" {
			return true
		}
		if i >= len(t) {
			return false
		}
		if seg != "+" && seg != t[i] {
			return false
		}
	}
	return len(f) == len(t)
}
