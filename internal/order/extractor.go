package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/logic"
	"fairytale-chat/internal/models"
)

// ErrExtraction means the model output could not be turned into an order
var ErrExtraction = errors.New("could not compile order from chat")

// ExtractionFailedMessage is shown to the user when compiling fails
const ExtractionFailedMessage = "Could not compile order from chat. Add missing details and try again."

// ExtractorPrompt is the system prompt for the extraction call
const ExtractorPrompt = `
You are OrderExtractor for Fairytale Farms. From the conversation PLUS the provided context, extract a single customer order in STRICT JSON (no markdown, no commentary).

JSON schema:
{
  "customer": { "name": "", "email": "", "phone": "", "instagram": "" },
  "pickup": { "date": "", "time": "", "method": "porch|delivery", "address": "" },
  "items": [
    { "type": "cookie", "flavor": "Chocolate Chip", "qty": 6 }
  ],
  "add_ons": { "milk": false },
  "notes": ""
}

Rules:
- Prefer explicit values from the provided context (form + builder) when present.
- If chat mentions a cookie box (6/12/24) with flavors, expand into per-flavor items (split qty evenly if needed).
- If items are missing, default to Cookie Builder: cookieQty + cookieFlavors split evenly.
- add_ons.milk = includeMilk.
- Use 24h time if possible (e.g., "15:00"). Output ONLY valid JSON.`

var (
	jsonFenceRegex = regexp.MustCompile("(?i)```json\\s*([\\s\\S]*?)```")
	anyFenceRegex  = regexp.MustCompile("```([\\s\\S]*?)```")
)

// Completer sends a conversation with a system prompt and returns the reply text.
// *assistant.Relay satisfies it.
type Completer interface {
	Complete(ctx context.Context, messages []models.Message, systemPrompt string) (string, error)
}

// Compiler extracts orders from conversations
type Compiler struct {
	completer Completer
	log       *log.Logger
}

// NewCompiler creates a compiler that calls completer for extraction
func NewCompiler(completer Completer) *Compiler {
	return &Compiler{
		completer: completer,
		log:       logger.With("Order"),
	}
}

// Compile extracts an order from the conversation, the builder and the form.
// The form must be complete; nothing is sent otherwise.
func (c *Compiler) Compile(ctx context.Context, conversation []models.Message, builder BuilderState, form Form) (*models.OrderDraft, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	c.log.Info("Compile started", "message_count", len(conversation), "flavors", len(builder.Flavors))

	messages, err := logic.WithContextMessage(conversation, logic.OrderContext{
		CookieFlavors: builder.Flavors,
		CookieQty:     builder.Qty,
		IncludeMilk:   builder.IncludeMilk,
		Form:          logic.ContextForm{Customer: form.Customer, Pickup: form.Pickup},
	})
	if err != nil {
		return nil, err
	}

	text, err := c.completer.Complete(ctx, messages, ExtractorPrompt)
	if err != nil {
		c.log.Warn("Compile failed: extraction request", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	draft, err := ParseDraft(text)
	if err != nil {
		c.log.Warn("Compile failed: unusable model output", "err", err)
		return nil, err
	}

	if len(draft.Items) == 0 {
		draft.Items = builder.DefaultItems()
	}
	applyForm(draft, form)

	if err := ValidateDraft(draft); err != nil {
		c.log.Warn("Compile failed: schema", "err", err)
		return nil, err
	}

	c.log.Info("Compile completed", "items", len(draft.Items), "method", draft.Pickup.Method, "duration", time.Since(start))
	return draft, nil
}

// StripCodeFences removes a leading ```json fence and any other ``` fences, then trims
func StripCodeFences(text string) string {
	if loc := jsonFenceRegex.FindStringSubmatchIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[2]:loc[3]] + text[loc[1]:]
	}
	text = anyFenceRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// ParseDraft strips fences from model output and decodes it. Invalid JSON is
// reported as ErrExtraction; no repair is attempted.
func ParseDraft(text string) (*models.OrderDraft, error) {
	var draft models.OrderDraft
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &draft); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return &draft, nil
}

// applyForm lets non-empty form values win over extracted ones. The pickup
// method defaults to porch and an address is kept only for delivery.
func applyForm(draft *models.OrderDraft, form Form) {
	draft.Customer = models.Customer{
		Name:      firstNonEmpty(form.Customer.Name, draft.Customer.Name),
		Email:     firstNonEmpty(form.Customer.Email, draft.Customer.Email),
		Phone:     firstNonEmpty(form.Customer.Phone, draft.Customer.Phone),
		Instagram: firstNonEmpty(form.Customer.Instagram, draft.Customer.Instagram),
	}

	method := models.PickupMethod(firstNonEmpty(string(form.Pickup.Method), string(draft.Pickup.Method), string(models.PickupPorch)))
	address := ""
	if method == models.PickupDelivery {
		address = firstNonEmpty(form.Pickup.Address, draft.Pickup.Address)
	}
	draft.Pickup = models.Pickup{
		Date:    firstNonEmpty(form.Pickup.Date, draft.Pickup.Date),
		Time:    firstNonEmpty(form.Pickup.Time, draft.Pickup.Time),
		Method:  method,
		Address: address,
	}
}

// ValidateDraft checks the shape of a compiled order
func ValidateDraft(draft *models.OrderDraft) error {
	if len(draft.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrExtraction)
	}
	for i, item := range draft.Items {
		if strings.TrimSpace(item.Type) == "" {
			return fmt.Errorf("%w: item %d has no type", ErrExtraction, i)
		}
		if item.Qty <= 0 {
			return fmt.Errorf("%w: item %d has quantity %d", ErrExtraction, i, item.Qty)
		}
	}
	if !draft.Pickup.Method.Valid() {
		return fmt.Errorf("%w: unknown pickup method %q", ErrExtraction, draft.Pickup.Method)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
