package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/accelstream/internal/adapters/mq/queue"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/metrics"
)

// maxNotificationBytes caps a request body; real notifications are a few
// dozen bytes.
const maxNotificationBytes = 64 << 10

// Payload encodings accepted on POST /notifications.
const (
	EncodingText   = "text"
	EncodingBase64 = "base64"
)

// NotificationRequest is the body of POST /notifications.
type NotificationRequest struct {
	Source   string `json:"source"`
	Axis     string `json:"axis,omitempty"`
	Payload  string `json:"payload"`
	Encoding string `json:"encoding,omitempty"`
}

// NotificationHandler accepts notify events over HTTP.
type NotificationHandler struct {
	deps Dependencies
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(deps Dependencies) *NotificationHandler {
	return &NotificationHandler{deps: deps}
}

// HandlePostNotification handles POST /notifications requests.
func (h *NotificationHandler) HandlePostNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	n, err := decodeNotification(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	metrics.RecordNotification("http")
	if err := h.deps.Enqueue(r.Context(), n); err != nil {
		switch {
		case errors.Is(err, queue.ErrFull):
			writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind("enqueue", ErrBackpressure, err))
		case errors.Is(err, queue.ErrClosed):
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind("enqueue", ErrUnavailable, err))
		default:
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

func decodeNotification(w http.ResponseWriter, r *http.Request) (model.Notification, error) {
	var req NotificationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotificationBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Notification{}, WrapKind("decode body", ErrBadRequest, err)
	}

	axis, err := model.ParseAxis(req.Axis)
	if err != nil {
		return model.Notification{}, WrapKind("axis", ErrBadRequest, err)
	}

	n := model.Notification{Source: req.Source, Axis: axis}
	switch req.Encoding {
	case "", EncodingText:
		n.Payload = req.Payload
	case EncodingBase64:
		raw, err := base64.StdEncoding.DecodeString(req.Payload)
		if err != nil {
			return model.Notification{}, WrapKind("payload", ErrBadRequest, err)
		}
		n.Payload = raw
	default:
		return model.Notification{}, NewKind("encoding "+req.Encoding, ErrBadRequest)
	}
	return n, nil
}
