package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oruko-mi/chat/internal/model"
	"github.com/oruko-mi/chat/internal/service"
	"github.com/oruko-mi/chat/pkg/logger"
	"github.com/oruko-mi/chat/pkg/metrics"
)

const defaultHeartbeat = 30 * time.Second

// EventHandler streams conversation events over SSE.
type EventHandler struct {
	ctrl      *service.Controller
	events    *service.Broadcaster
	logger    *logger.Logger
	heartbeat time.Duration
}

// NewEventHandler creates a new event handler.
func NewEventHandler(ctrl *service.Controller, events *service.Broadcaster, log *logger.Logger) *EventHandler {
	return &EventHandler{
		ctrl:      ctrl,
		events:    events,
		logger:    log,
		heartbeat: defaultHeartbeat,
	}
}

// Stream handles GET /api/v1/events
// The first event is the current state; state-change events follow as they
// happen, with periodic heartbeats.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before the snapshot so no change falls between the two.
	events, err := h.events.Subscribe(ctx)
	if err != nil {
		h.logger.Error("failed to subscribe to events", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// The server write timeout must not cut a long-lived stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	if err := sendSSEEvent(w, flusher, "state", h.ctrl.Snapshot()); err != nil {
		h.logger.Warn("failed to send initial state", zap.Error(err))
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE client disconnected")
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			event, err := service.DecodeEvent(msg)
			if err != nil {
				msg.Ack()
				h.logger.Warn("skipping undecodable event", zap.Error(err))
				continue
			}
			err = sendSSEEvent(w, flusher, string(event.Type), event)
			msg.Ack()
			if err != nil {
				h.logger.Warn("failed to send event", zap.String("type", string(event.Type)), zap.Error(err))
				return
			}

		case <-heartbeat.C:
			_ = sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}
