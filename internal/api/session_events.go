package api

import (
	"net/http"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/session"
)

// SessionEventsHandler streams session events over SSE
type SessionEventsHandler struct {
	manager     *session.Manager
	broadcaster *EventBroadcaster
	log         *log.Logger
}

// NewSessionEventsHandler creates an SSE handler
func NewSessionEventsHandler(manager *session.Manager, broadcaster *EventBroadcaster) *SessionEventsHandler {
	return &SessionEventsHandler{
		manager:     manager,
		broadcaster: broadcaster,
		log:         logger.With("SSE"),
	}
}

// HandleEvents handles GET /api/sessions/{id}/events
func (h *SessionEventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	s, err := h.manager.Get(sessionID)
	if err != nil {
		status, message := sessionErrorStatus(err)
		h.log.Warn("Rejected connection", "session_id", sessionID, "err", err)
		writeError(w, status, message)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.log.Error("Streaming not supported")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	eventCh := h.broadcaster.Subscribe(sessionID)
	defer h.broadcaster.Unsubscribe(sessionID, eventCh)

	// Clients start from the current state, then follow events
	data, err := FormatSSE(Event{Type: "connected", Data: s.Snapshot()})
	if err != nil {
		h.log.Error("Failed to format connected event", "err", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		h.log.Warn("Failed to send connected event", "err", err)
		return
	}
	flusher.Flush()

	h.log.Info("Client connected", "session_id", sessionID, "clients", h.broadcaster.ClientCount(sessionID))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Info("Client disconnected", "session_id", sessionID)
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			data, err := FormatSSE(event)
			if err != nil {
				h.log.Error("Failed to format event", "type", event.Type, "err", err)
				continue
			}
			if _, err := w.Write(data); err != nil {
				h.log.Warn("Failed to write event", "err", err)
				return
			}
			flusher.Flush()
		}
	}
}
