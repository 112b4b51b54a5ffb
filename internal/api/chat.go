package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/assistant"
	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/models"
)

// ChatRelay forwards a conversation to an LLM vendor. *assistant.Relay satisfies it.
type ChatRelay interface {
	Send(ctx context.Context, messages []models.Message, systemPrompt string) (*assistant.VendorReply, error)
}

// ChatHandler relays stateless chat requests
type ChatHandler struct {
	relay ChatRelay
	log   *log.Logger
}

// NewChatHandler creates a chat handler
func NewChatHandler(relay ChatRelay) *ChatHandler {
	return &ChatHandler{
		relay: relay,
		log:   logger.With("API"),
	}
}

// ChatMessage is one conversation turn in a chat request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	SystemPrompt *string       `json:"systemPrompt"`
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	start := time.Now()
	h.log.Info("Chat started")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("Chat failed: invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		h.log.Warn("Chat failed: messages are required")
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	if req.SystemPrompt == nil {
		h.log.Warn("Chat failed: systemPrompt is required")
		writeError(w, http.StatusBadRequest, "systemPrompt is required")
		return
	}

	messages := make([]models.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := models.RoleAssistant
		if m.Role == string(models.RoleUser) {
			role = models.RoleUser
		}
		messages = append(messages, models.Message{Role: role, Content: m.Content})
	}

	reply, err := h.relay.Send(r.Context(), messages, *req.SystemPrompt)
	if err != nil {
		status := assistant.StatusCode(err)
		h.log.Error("Chat failed", "status", status, "err", err, "duration", time.Since(start))
		writeError(w, status, chatErrorMessage(err))
		return
	}

	h.log.Info("Chat completed", "vendor", reply.Vendor, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, reply.Normalize())
}

func chatErrorMessage(err error) string {
	if errors.Is(err, assistant.ErrNotConfigured) {
		return assistant.ErrNotConfigured.Error()
	}
	return err.Error()
}
