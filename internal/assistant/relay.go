package assistant

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/models"
)

// Relay forwards a conversation to the primary vendor and, when that vendor
// is unconfigured or fails, once to the secondary vendor.
type Relay struct {
	primary   Vendor
	secondary Vendor
	log       *log.Logger
}

// NewRelay creates a relay. Either vendor may be nil.
func NewRelay(primary, secondary Vendor) *Relay {
	return &Relay{
		primary:   primary,
		secondary: secondary,
		log:       logger.With("Relay"),
	}
}

// Configured reports whether at least one vendor can be called
func (r *Relay) Configured() bool {
	return configured(r.primary) || configured(r.secondary)
}

// Send returns the first successful vendor reply. No vendor is retried.
func (r *Relay) Send(ctx context.Context, messages []models.Message, systemPrompt string) (*VendorReply, error) {
	start := time.Now()
	r.log.Info("Send started", "message_count", len(messages), "system_prompt_length", len(systemPrompt))

	var attempts []error
	for _, v := range []Vendor{r.primary, r.secondary} {
		if !configured(v) {
			continue
		}
		reply, err := v.Complete(ctx, systemPrompt, messages)
		if err == nil {
			r.log.Info("Send completed", "vendor", reply.Vendor, "fallback", len(attempts) > 0, "duration", time.Since(start))
			return reply, nil
		}
		r.log.Warn("Vendor failed", "vendor", v.Name(), "err", err)
		attempts = append(attempts, err)
	}

	switch len(attempts) {
	case 0:
		r.log.Error("Send failed: no vendor configured")
		return nil, ErrNotConfigured
	case 1:
		return nil, attempts[0]
	default:
		return nil, &ExhaustedError{Attempts: attempts}
	}
}

// Complete is Send reduced to the reply text
func (r *Relay) Complete(ctx context.Context, messages []models.Message, systemPrompt string) (string, error) {
	reply, err := r.Send(ctx, messages, systemPrompt)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func configured(v Vendor) bool {
	return v != nil && v.Configured()
}
