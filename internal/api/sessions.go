package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/mailer"
	"fairytale-chat/internal/models"
	"fairytale-chat/internal/order"
	"fairytale-chat/internal/persona"
	"fairytale-chat/internal/session"
)

// SessionHandler exposes conversation sessions over HTTP
type SessionHandler struct {
	manager     *session.Manager
	broadcaster *EventBroadcaster
	sender      OrderSender
	recipient   string
	log         *log.Logger
}

// NewSessionHandler creates a session handler. Compiled orders are sent to recipient.
func NewSessionHandler(manager *session.Manager, broadcaster *EventBroadcaster, sender OrderSender, recipient string) *SessionHandler {
	return &SessionHandler{
		manager:     manager,
		broadcaster: broadcaster,
		sender:      sender,
		recipient:   recipient,
		log:         logger.With("API"),
	}
}

// CreateSessionRequest is the optional body of POST /api/sessions
type CreateSessionRequest struct {
	Persona string `json:"persona"`
}

// MessageRequest is the body of POST /api/sessions/{id}/messages
type MessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse carries the reply and the session after it
type MessageResponse struct {
	Reply   models.Message   `json:"reply"`
	Session session.Snapshot `json:"session"`
}

// SwitchPersonaRequest is the body of PUT /api/sessions/{id}/persona
type SwitchPersonaRequest struct {
	Persona string `json:"persona"`
}

// PromptRequest is the body of PUT /api/sessions/{id}/prompt
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// CompileOrderRequest is the body of POST /api/sessions/{id}/order
type CompileOrderRequest struct {
	Form order.Form `json:"form"`
}

// SessionOrderResponse is the success body of a session order send
type SessionOrderResponse struct {
	OK      bool   `json:"ok"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("Create session failed: invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.manager.Create(req.Persona)
	if err != nil {
		h.writeSessionError(w, "Create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Delete handles DELETE /api/sessions/{id}. Event streams of the session
// receive a deleted event and are closed.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.manager.Delete(id); err != nil {
		h.writeSessionError(w, "Delete session", err)
		return
	}

	h.broadcaster.Publish(id, session.EventDeleted, map[string]string{"id": id})
	closed := h.broadcaster.CloseSession(id)
	h.log.Info("Session deleted", "session_id", id, "closed_streams", closed)
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage handles POST /api/sessions/{id}/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start := time.Now()
	reply, err := s.Submit(r.Context(), req.Content)
	if err != nil {
		h.writeSessionError(w, "Send message", err)
		return
	}
	h.log.Info("Send message completed", "session_id", s.ID(), "duration", time.Since(start))
	writeJSON(w, http.StatusOK, MessageResponse{Reply: reply, Session: s.Snapshot()})
}

// SelectSuggestion handles POST /api/sessions/{id}/suggestions/{index}
func (h *SessionHandler) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid suggestion index")
		return
	}

	reply, err := s.SelectSuggestion(r.Context(), index)
	if err != nil {
		h.writeSessionError(w, "Select suggestion", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Reply: reply, Session: s.Snapshot()})
}

// SwitchPersona handles PUT /api/sessions/{id}/persona
func (h *SessionHandler) SwitchPersona(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SwitchPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Persona == "" {
		writeError(w, http.StatusBadRequest, "persona is required")
		return
	}

	if err := s.SwitchPersona(r.Context(), req.Persona); err != nil {
		h.writeSessionError(w, "Switch persona", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// ApplyPrompt handles PUT /api/sessions/{id}/prompt
func (h *SessionHandler) ApplyPrompt(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.ApplyCustomPrompt(req.Prompt)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// UpdateBuilder handles PUT /api/sessions/{id}/builder
func (h *SessionHandler) UpdateBuilder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req order.BuilderState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.UpdateBuilder(req); err != nil {
		h.writeSessionError(w, "Update builder", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// AppendPackaging handles POST /api/sessions/{id}/packaging
func (h *SessionHandler) AppendPackaging(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	msg := s.AppendPackaging()
	writeJSON(w, http.StatusOK, MessageResponse{Reply: msg, Session: s.Snapshot()})
}

// CompileOrder handles POST /api/sessions/{id}/order
func (h *SessionHandler) CompileOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CompileOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start := time.Now()
	draft, err := s.CompileOrder(r.Context(), req.Form)
	if err != nil {
		h.writeSessionError(w, "Compile order", err)
		return
	}
	h.log.Info("Compile order completed", "session_id", s.ID(), "items", len(draft.Items), "duration", time.Since(start))
	writeJSON(w, http.StatusOK, draft)
}

// SendOrder handles POST /api/sessions/{id}/order/send
func (h *SessionHandler) SendOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	draft, ok := s.OrderDraft()
	if !ok {
		writeError(w, http.StatusConflict, "Compile an order before sending it")
		return
	}

	sent, err := h.sender.Send(r.Context(), h.recipient, draft)
	if err != nil {
		status := mailer.StatusCode(err)
		h.log.Error("Send session order failed", "session_id", s.ID(), "status", status, "err", err)
		writeError(w, status, mailer.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, SessionOrderResponse{
		OK:      true,
		OrderID: sent.ID,
		Message: "Order email sent to " + h.recipient + "!",
	})
}

// session resolves the {id} path value, answering 404 itself when unknown
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.manager.Get(r.PathValue("id"))
	if err != nil {
		h.writeSessionError(w, "Get session", err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, op string, err error) {
	status, message := sessionErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(op+" failed", "status", status, "err", err)
	} else {
		h.log.Warn(op+" failed", "status", status, "err", err)
	}
	writeError(w, status, message)
}

// sessionErrorStatus maps session, persona and order errors to HTTP answers
func sessionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, persona.ErrUnknownPersona):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, session.ErrInvalidSuggestion),
		errors.Is(err, order.ErrIncompleteForm),
		errors.Is(err, order.ErrInvalidBuilder):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrConversationReset):
		return http.StatusConflict, err.Error()
	case errors.Is(err, order.ErrExtraction):
		return http.StatusUnprocessableEntity, order.ExtractionFailedMessage
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
