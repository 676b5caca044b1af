package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

const writeWait = 5 * time.Second

// StreamHandler pushes live predictions to websocket clients.
type StreamHandler struct {
	deps     Dependencies
	upgrader websocket.Upgrader
	origins  map[string]struct{}
	clients  atomic.Int64
	log      logger.Logger
}

// NewStreamHandler creates a new websocket stream handler. Browsers may
// connect from the serving origin or from one of origins.
func NewStreamHandler(deps Dependencies, origins ...string) *StreamHandler {
	h := &StreamHandler{
		deps:    deps,
		origins: make(map[string]struct{}, len(origins)),
		log:     logger.Get().Named("ws"),
	}
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			h.origins[strings.ToLower(o)] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin accepts non-browser clients (no Origin header), same-origin
// pages and configured origins.
func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := h.origins[strings.ToLower(strings.TrimRight(origin, "/"))]
	if !ok {
		h.log.Warn(r.Context(), "websocket origin rejected", logger.String("origin", origin))
	}
	return ok
}

// HandleStream handles GET /ws/predictions. The latest prediction, if any,
// is sent first; every later one follows as a JSON text frame.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	metrics.UpdateWebsocketClients(int(h.clients.Add(1)))
	defer func() { metrics.UpdateWebsocketClients(int(h.clients.Add(-1))) }()

	ch, cancel := h.deps.SubscribePredictions()
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	go func() {
		// reads only detect the peer going away
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if p, ok := h.deps.LatestPrediction(); ok {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(p); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case p, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(p); err != nil {
				h.log.Debug(ctx, "websocket write failed", logger.Error(err))
				return
			}
		}
	}
}
