package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/mailer"
	"fairytale-chat/internal/models"
)

// OrderSender delivers an order by email. *mailer.Mailer satisfies it.
type OrderSender interface {
	Send(ctx context.Context, to string, order models.OrderDraft) (*models.SentOrder, error)
}

// SendOrderHandler relays order emails
type SendOrderHandler struct {
	sender OrderSender
	log    *log.Logger
}

// NewSendOrderHandler creates a send-order handler
func NewSendOrderHandler(sender OrderSender) *SendOrderHandler {
	return &SendOrderHandler{
		sender: sender,
		log:    logger.With("API"),
	}
}

// SendOrderRequest is the body of POST /send-order
type SendOrderRequest struct {
	To    string             `json:"to"`
	Order *models.OrderDraft `json:"order"`
}

// SendOrderResponse is the success body of an order send
type SendOrderResponse struct {
	OK      bool   `json:"ok"`
	OrderID string `json:"order_id,omitempty"`
}

// SendOrder handles POST /send-order
func (h *SendOrderHandler) SendOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	start := time.Now()
	h.log.Info("SendOrder started")

	var req SendOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("SendOrder failed: malformed body", "err", err)
		writeError(w, http.StatusInternalServerError, "Malformed request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.To) == "" || req.Order == nil {
		h.log.Warn("SendOrder failed: missing fields")
		writeError(w, http.StatusBadRequest, `Missing "to" or "order"`)
		return
	}

	sent, err := h.sender.Send(r.Context(), req.To, *req.Order)
	if err != nil {
		status := mailer.StatusCode(err)
		h.log.Error("SendOrder failed", "status", status, "err", err, "duration", time.Since(start))
		writeError(w, status, mailer.Message(err))
		return
	}

	h.log.Info("SendOrder completed", "order_id", sent.ID, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, SendOrderResponse{OK: true, OrderID: sent.ID})
}
