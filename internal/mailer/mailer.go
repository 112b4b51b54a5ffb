// Package mailer delivers compiled orders to the bakery by email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/models"
)

// ErrMissingRecipient is returned when no recipient address is given
var ErrMissingRecipient = errors.New(`missing "to"`)

// Recorder keeps a log of delivered orders. *db.DB satisfies it.
type Recorder interface {
	InsertSentOrder(order *models.SentOrder) error
}

// Mailer renders orders and sends them through Resend
type Mailer struct {
	client   *Client
	from     string
	recorder Recorder
	log      *log.Logger
}

// New creates a mailer sending from the given address. recorder may be nil.
func New(client *Client, from string, recorder Recorder) *Mailer {
	return &Mailer{
		client:   client,
		from:     from,
		recorder: recorder,
		log:      logger.With("Mailer"),
	}
}

// Configured reports whether orders can be sent
func (m *Mailer) Configured() bool {
	return m.client.Configured()
}

// Send emails order to the recipient and records it
func (m *Mailer) Send(ctx context.Context, to string, order models.OrderDraft) (*models.SentOrder, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, ErrMissingRecipient
	}
	if !m.client.Configured() {
		return nil, ErrNotConfigured
	}

	html, err := RenderHTML(order)
	if err != nil {
		return nil, err
	}

	emailID, err := m.client.Send(ctx, Email{
		From:    m.from,
		To:      []string{to},
		Subject: Subject(order),
		HTML:    html,
	})
	if err != nil {
		return nil, err
	}

	sent := &models.SentOrder{
		ID:        uuid.NewString(),
		Recipient: to,
		EmailID:   emailID,
		Order:     order,
		CreatedAt: time.Now().UTC(),
	}
	if m.recorder != nil {
		// The email is out; a failed record does not fail the send
		if err := m.recorder.InsertSentOrder(sent); err != nil {
			m.log.Error("Record sent order failed", "order_id", sent.ID, "err", err)
		}
	}

	m.log.Info("Order sent", "order_id", sent.ID, "to", to, "items", len(order.Items))
	return sent, nil
}

// StatusCode maps a Send error to the HTTP status the API answers with
func StatusCode(err error) int {
	var vendorErr *VendorError
	switch {
	case errors.Is(err, ErrMissingRecipient):
		return 400
	case errors.As(err, &vendorErr):
		return 502
	default:
		return 500
	}
}

// Message is the error text reported to callers
func Message(err error) string {
	var vendorErr *VendorError
	if errors.As(err, &vendorErr) {
		return vendorErr.Error()
	}
	return fmt.Sprint(err)
}
