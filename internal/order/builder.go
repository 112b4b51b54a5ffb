// Package order turns builder selections, the customer form and the chat
// into structured orders.
package order

import (
	"errors"
	"fmt"
	"strings"

	"fairytale-chat/internal/knowledge"
	"fairytale-chat/internal/models"
)

// DefaultQty is the cookie count of a fresh builder
const DefaultQty = 6

var (
	// ErrIncompleteForm means the customer form lacks a required field
	ErrIncompleteForm = errors.New("please add customer name, pickup date and pickup time")

	// ErrInvalidBuilder means the builder selections cannot form a box
	ErrInvalidBuilder = errors.New("invalid cookie box selection")
)

// BuilderState holds the cookie box builder selections
type BuilderState struct {
	Flavors     []string `json:"cookieFlavors"`
	Qty         int      `json:"cookieQty"`
	IncludeMilk bool     `json:"includeMilk"`
}

// DefaultBuilder returns an empty six-cookie box
func DefaultBuilder() BuilderState {
	return BuilderState{Flavors: []string{}, Qty: DefaultQty}
}

// HasFlavor reports whether flavor is selected
func (b BuilderState) HasFlavor(flavor string) bool {
	for _, f := range b.Flavors {
		if f == flavor {
			return true
		}
	}
	return false
}

// Validate checks the quantity and that every flavor is on the menu
func (b BuilderState) Validate(kb knowledge.Base) error {
	if b.Qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidBuilder)
	}
	seen := make(map[string]bool, len(b.Flavors))
	for _, f := range b.Flavors {
		if !kb.HasCookie(f) {
			return fmt.Errorf("%w: unknown flavor %q", ErrInvalidBuilder, f)
		}
		if seen[f] {
			return fmt.Errorf("%w: duplicate flavor %q", ErrInvalidBuilder, f)
		}
		seen[f] = true
	}
	return nil
}

// Form is the customer and pickup form filled in before compiling an order
type Form struct {
	Customer models.Customer `json:"customer"`
	Pickup   models.Pickup   `json:"pickup"`
}

// Validate requires customer name, pickup date and pickup time
func (f Form) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Customer.Name) == "" {
		missing = append(missing, "customer name")
	}
	if strings.TrimSpace(f.Pickup.Date) == "" {
		missing = append(missing, "pickup date")
	}
	if strings.TrimSpace(f.Pickup.Time) == "" {
		missing = append(missing, "pickup time")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing %s)", ErrIncompleteForm, strings.Join(missing, ", "))
	}
	if f.Pickup.Method != "" && !f.Pickup.Method.Valid() {
		return fmt.Errorf("%w (unknown pickup method %q)", ErrIncompleteForm, f.Pickup.Method)
	}
	return nil
}

// SplitEvenly divides total into n integer parts as evenly as possible.
// The remainder goes to the first parts.
func SplitEvenly(total, n int) []int {
	if n <= 0 {
		return nil
	}
	if total < 0 {
		total = 0
	}
	parts := make([]int, n)
	base, rem := total/n, total%n
	for i := range parts {
		parts[i] = base
		if i < rem {
			parts[i]++
		}
	}
	return parts
}

// DefaultItems expands the builder into one cookie line item per flavor.
// Flavors whose share rounds down to zero are left out.
func (b BuilderState) DefaultItems() []models.LineItem {
	parts := SplitEvenly(b.Qty, len(b.Flavors))
	items := make([]models.LineItem, 0, len(parts))
	for i, qty := range parts {
		if qty == 0 {
			continue
		}
		items = append(items, models.LineItem{Type: "cookie", Flavor: b.Flavors[i], Qty: qty})
	}
	return items
}
