package api

import (
	"net/http"

	"fairytale-chat/internal/session"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status       string `json:"status"`
	LiveSessions int    `json:"live_sessions"`
	SSEClients   int    `json:"sse_clients"`
}

// HealthHandler reports liveness with session and stream counts
type HealthHandler struct {
	manager     *session.Manager
	broadcaster *EventBroadcaster
}

// NewHealthHandler creates a health handler. manager may be nil.
func NewHealthHandler(manager *session.Manager, broadcaster *EventBroadcaster) *HealthHandler {
	return &HealthHandler{manager: manager, broadcaster: broadcaster}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "ok",
		SSEClients: h.broadcaster.TotalClientCount(),
	}
	if h.manager != nil {
		resp.LiveSessions = h.manager.LiveCount()
	}
	writeJSON(w, http.StatusOK, resp)
}
