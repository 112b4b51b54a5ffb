package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/db"
	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/models"
)

const (
	defaultOrderListLimit = 50
	maxOrderListLimit     = 200
)

// OrderHistory reads delivered orders. *db.DB satisfies it.
type OrderHistory interface {
	ListSentOrders(limit int) ([]models.SentOrder, error)
	GetSentOrder(id string) (*models.SentOrder, error)
}

// OrderHandler serves the history of sent orders
type OrderHandler struct {
	history OrderHistory
	log     *log.Logger
}

// NewOrderHandler creates an order history handler
func NewOrderHandler(history OrderHistory) *OrderHandler {
	return &OrderHandler{
		history: history,
		log:     logger.With("API"),
	}
}

// List handles GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultOrderListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxOrderListLimit)
	}

	orders, err := h.history.ListSentOrders(limit)
	if err != nil {
		h.log.Error("List orders failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.history.GetSentOrder(r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.log.Error("Get order failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to get order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}
