package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fairytale-chat/internal/knowledge"
)

func TestPackagingDetails_WithMilkAndPeanuts(t *testing.T) {
	b := BuilderState{Flavors: []string{"Chocolate Chip", "Peanut Butter"}, Qty: 12, IncludeMilk: true}

	want := `FAIRYTALE FARMS — COOKIE BOX
Quantity: 12
Flavors: Chocolate Chip, Peanut Butter
Add-on: Cold Milk

Allergens: Contains: wheat, eggs, dairy. Contains peanuts.

Packaging & Pickup Steps:
1) Line box with parchment; arrange 12 cookies to prevent shifting.
2) Place flavor card on top; seal with Fairytale Farms sticker.
3) Add sealed milk bottle in an insulated pouch; include straw/napkin kit.
4) Label: Customer name • pickup time • flavor list • allergen note.
5) Stage in porch pickup bin; add ice pack if ambient > 78°F.
6) Send ready-for-pickup message with unboxing cue ("Open on camera for a surprise sticker!").

Notes:
• Photo tip: overhead shot on a light surface; add a few crumbs for texture.
• AOV boost: mini-card—"Add 2 brownies next time" + QR code.`

	assert.Equal(t, want, PackagingDetails(b, knowledge.Default()))
}

func TestPackagingDetails_EmptyBox(t *testing.T) {
	got := PackagingDetails(DefaultBuilder(), knowledge.Default())

	assert.Contains(t, got, "Quantity: 6\n")
	assert.Contains(t, got, "Flavors: No flavors selected\n")
	assert.Contains(t, got, "Add-on: None\n")
	assert.Contains(t, got, "Allergens: Contains: wheat, eggs, dairy.\n")
	assert.Contains(t, got, "3) No milk add-on.\n")
	assert.NotContains(t, got, "peanuts")
}
