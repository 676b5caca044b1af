// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/accelstream/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Enqueue hands a notification to the pipeline worker.
	Enqueue(ctx context.Context, n model.Notification) error

	// LatestPrediction returns the most recent live prediction, if any.
	LatestPrediction() (model.Prediction, bool)

	// SubscribePredictions streams live predictions until cancel is called.
	SubscribePredictions() (ch <-chan model.Prediction, cancel func())
}

// Server wires HTTP routes for the service API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	notificationHandler *NotificationHandler
	predictionHandler   *PredictionHandler
	streamHandler       *StreamHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	allowedOrigins []string
}

// WithAllowedOrigins lets pages served from origins open the prediction
// websocket in addition to same-origin pages.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *serverOptions) {
		o.allowedOrigins = append(o.allowedOrigins, origins...)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		notificationHandler: NewNotificationHandler(deps),
		predictionHandler:   NewPredictionHandler(deps),
		streamHandler:       NewStreamHandler(deps, o.allowedOrigins...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/notifications", MetricsMiddleware(s.notificationHandler.HandlePostNotification, "notifications"))
	mux.HandleFunc("/prediction", MetricsMiddleware(s.predictionHandler.HandleGetPrediction, "prediction"))
	// upgraded connections bypass the metrics wrapper, which cannot hijack
	mux.HandleFunc("/ws/predictions", s.streamHandler.HandleStream)
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
