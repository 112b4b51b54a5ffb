package models

import "time"

// Role defines who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Persona represents an expert chat character with a fixed system prompt
type Persona struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Traits        []string `json:"traits,omitempty" yaml:"traits"`
	SystemPrompt  string   `json:"system_prompt" yaml:"system_prompt"`
	Welcome       string   `json:"welcome" yaml:"welcome"`
	Suggestions   []string `json:"suggestions" yaml:"suggestions"`
	KnowledgeBase bool     `json:"knowledge_base" yaml:"knowledge_base"`
}

// Message represents a single turn in a conversation
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, CreatedAt: time.Now()}
}

// Customer holds the customer identity of an order
type Customer struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Instagram string `json:"instagram"`
}

// PickupMethod is how the order leaves the bakery
type PickupMethod string

const (
	PickupPorch    PickupMethod = "porch"
	PickupDelivery PickupMethod = "delivery"
)

// Valid reports whether m is a known pickup method
func (m PickupMethod) Valid() bool {
	return m == PickupPorch || m == PickupDelivery
}

// Pickup holds the pickup or delivery details of an order
type Pickup struct {
	Date    string       `json:"date"`
	Time    string       `json:"time"`
	Method  PickupMethod `json:"method"`
	Address string       `json:"address"`
}

// LineItem is a single product line. Flavor is used for cookies and cakes,
// Variant for brownies.
type LineItem struct {
	Type    string `json:"type"`
	Flavor  string `json:"flavor,omitempty"`
	Variant string `json:"variant,omitempty"`
	Size    string `json:"size,omitempty"`
	Qty     int    `json:"qty"`
}

// AddOns holds the boolean extras of an order
type AddOns struct {
	Milk bool `json:"milk"`
}

// OrderDraft is the structured order produced by extraction
type OrderDraft struct {
	Customer Customer   `json:"customer"`
	Pickup   Pickup     `json:"pickup"`
	Items    []LineItem `json:"items"`
	AddOns   AddOns     `json:"add_ons"`
	Notes    string     `json:"notes"`
}

// TimelineEntry is a short record of a conversation event
type TimelineEntry struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Persona   string    `json:"personality"`
	Sentiment string    `json:"emotional"`
}

// SentOrder is a delivered order kept for the owner's records
type SentOrder struct {
	ID        string     `json:"id"`
	Recipient string     `json:"recipient"`
	EmailID   string     `json:"email_id,omitempty"`
	Order     OrderDraft `json:"order"`
	CreatedAt time.Time  `json:"created_at"`
}
