package logic

import (
	"encoding/json"
	"fmt"

	"fairytale-chat/internal/models"
)

// ContextForm is the customer and pickup form as sent to the extractor
type ContextForm struct {
	Customer models.Customer `json:"customer"`
	Pickup   models.Pickup   `json:"pickup"`
}

// OrderContext is the builder and form state serialized into the context message
type OrderContext struct {
	CookieFlavors []string    `json:"cookieFlavors"`
	CookieQty     int         `json:"cookieQty"`
	IncludeMilk   bool        `json:"includeMilk"`
	Form          ContextForm `json:"form"`
}

// FormatContextMessage formats the builder and form state for the extractor
// Format:
//
//	Context: {json}
func FormatContextMessage(ctx OrderContext) (string, error) {
	if ctx.CookieFlavors == nil {
		ctx.CookieFlavors = []string{}
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order context: %w", err)
	}
	return "Context: " + string(data), nil
}

// WithContextMessage returns a copy of history followed by one assistant
// message carrying the formatted context
func WithContextMessage(history []models.Message, ctx OrderContext) ([]models.Message, error) {
	content, err := FormatContextMessage(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(history)+1)
	out = append(out, history...)
	return append(out, models.NewMessage(models.RoleAssistant, content)), nil
}
