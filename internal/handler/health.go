package handler

import (
	"net/http"
	"time"

	natsclient "github.com/oruko-mi/chat/internal/nats"
	"github.com/oruko-mi/chat/pkg/logger"
)

// Dependency states reported by /ready.
const (
	checkOK                = "ok"
	checkDisabled          = "disabled"
	checkDisconnected      = "disconnected"
	checkMissingCredential = "missing credential"
)

// HealthHandler reports liveness and whether the chat can answer.
type HealthHandler struct {
	natsClient    *natsclient.Client
	provider      string
	hasCredential bool
	started       time.Time
}

// NewHealthHandler creates a new health handler. A nil NATS client means
// event fan-out is disabled.
func NewHealthHandler(natsClient *natsclient.Client, provider string, hasCredential bool) *HealthHandler {
	return &HealthHandler{
		natsClient:    natsClient,
		provider:      provider,
		hasCredential: hasCredential,
		started:       time.Now(),
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

type readyResponse struct {
	Status   string            `json:"status"`
	Provider string            `json:"provider"`
	Checks   map[string]string `json:"checks"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: logger.ServiceName,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Ready handles GET /ready
// Without a credential every reply is the apology, so the service reports
// degraded but stays in rotation. A dropped NATS connection is not ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{
		Status:   "ready",
		Provider: h.provider,
		Checks:   map[string]string{"llm": checkOK, "nats": checkDisabled},
	}
	status := http.StatusOK

	if !h.hasCredential {
		resp.Checks["llm"] = checkMissingCredential
		resp.Status = "degraded"
	}

	if h.natsClient != nil {
		resp.Checks["nats"] = checkOK
		if !h.natsClient.IsConnected() {
			resp.Checks["nats"] = checkDisconnected
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}
