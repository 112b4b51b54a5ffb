package order

import (
	"fmt"
	"strings"

	"fairytale-chat/internal/knowledge"
)

const peanutFlavor = "Peanut Butter"

// PackagingDetails renders the cookie box card for the current builder selections
func PackagingDetails(b BuilderState, kb knowledge.Base) string {
	flavors := "No flavors selected"
	if len(b.Flavors) > 0 {
		flavors = strings.Join(b.Flavors, ", ")
	}

	allergens := kb.Packaging.AllergensBase
	if b.HasFlavor(peanutFlavor) {
		allergens += " Contains peanuts."
	}

	addOn, milkStep := "None", "No milk add-on."
	if b.IncludeMilk {
		addOn = "Cold Milk"
		milkStep = "Add sealed milk bottle in an insulated pouch; include straw/napkin kit."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s — COOKIE BOX\n", strings.ToUpper(kb.Brand.Name))
	fmt.Fprintf(&sb, "Quantity: %d\n", b.Qty)
	fmt.Fprintf(&sb, "Flavors: %s\n", flavors)
	fmt.Fprintf(&sb, "Add-on: %s\n\n", addOn)
	fmt.Fprintf(&sb, "Allergens: %s\n\n", allergens)
	sb.WriteString("Packaging & Pickup Steps:\n")
	fmt.Fprintf(&sb, "1) Line box with parchment; arrange %d cookies to prevent shifting.\n", b.Qty)
	fmt.Fprintf(&sb, "2) Place flavor card on top; seal with %s sticker.\n", kb.Brand.Name)
	fmt.Fprintf(&sb, "3) %s\n", milkStep)
	sb.WriteString("4) Label: Customer name • pickup time • flavor list • allergen note.\n")
	sb.WriteString("5) Stage in porch pickup bin; add ice pack if ambient > 78°F.\n")
	sb.WriteString("6) Send ready-for-pickup message with unboxing cue (\"Open on camera for a surprise sticker!\").\n\n")
	sb.WriteString("Notes:\n")
	sb.WriteString("• Photo tip: overhead shot on a light surface; add a few crumbs for texture.\n")
	sb.WriteString("• AOV boost: mini-card—\"Add 2 brownies next time\" + QR code.")
	return sb.String()
}
