// Package knowledge grounds personas in the bakery's static knowledge base.
package knowledge

import (
	"encoding/json"
	"strings"

	"fairytale-chat/internal/models"
)

// Pickup describes how customers collect orders
type Pickup struct {
	Methods        []string `json:"methods"`
	PorchHoursHint string   `json:"porch_hours_hint"`
}

// Brand is the bakery's identity
type Brand struct {
	Name          string `json:"name"`
	Vibe          string `json:"vibe"`
	LocationCity  string `json:"location_city"`
	LocationState string `json:"location_state"`
	Pickup        Pickup `json:"pickup"`
}

// Products lists everything on offer
type Products struct {
	Cookies  []string `json:"cookies"`
	Brownies []string `json:"brownies"`
	Cakes    []string `json:"cakes"`
	AddOns   []string `json:"addOns"`
}

// Packaging holds box sizes and labeling rules
type Packaging struct {
	CookieBoxSizes    []int    `json:"cookie_box_sizes"`
	LabelRequirements []string `json:"label_requirements"`
	AllergensBase     string   `json:"allergens_base"`
}

// Ops holds operational notes
type Ops struct {
	TempNoteF      string `json:"temp_note_f"`
	SocialUnboxing string `json:"social_unboxing"`
}

// Policies holds order policies
type Policies struct {
	LeadTimeDays  int    `json:"lead_time_days"`
	RushPolicy    string `json:"rush_policy"`
	Payment       string `json:"payment"`
	Cancellations string `json:"cancellations"`
}

// Base is the structured knowledge base
type Base struct {
	Brand     Brand     `json:"brand"`
	Products  Products  `json:"products"`
	Packaging Packaging `json:"packaging"`
	Ops       Ops       `json:"ops"`
	Policies  Policies  `json:"policies"`
}

// Default returns the Fairytale Farms knowledge base
func Default() Base {
	return Base{
		Brand: Brand{
			Name:          "Fairytale Farms",
			Vibe:          "whimsical, cozy, handcrafted, porch-pickup friendly",
			LocationCity:  "Castalian Springs",
			LocationState: "TN",
			Pickup: Pickup{
				Methods:        []string{"porch", "local delivery"},
				PorchHoursHint: "Most pickups 10am–7pm unless coordinated",
			},
		},
		Products: Products{
			Cookies:  []string{"Chocolate Chip", "Sugar", "Snickerdoodle", "Peanut Butter", "Oatmeal Raisin"},
			Brownies: []string{"Classic Fudgy", "Walnut", "Salted Caramel"},
			Cakes:    []string{"Vanilla", "Chocolate", "Red Velvet", "Lemon"},
			AddOns:   []string{"Cold Milk"},
		},
		Packaging: Packaging{
			CookieBoxSizes:    []int{6, 12, 24},
			LabelRequirements: []string{"Customer name", "Pickup time", "Flavor list", "Allergen note"},
			AllergensBase:     "Contains: wheat, eggs, dairy.",
		},
		Ops: Ops{
			TempNoteF:      "Use ice pack if ambient > 78°F",
			SocialUnboxing: "Encourage an overhead 'unboxing' video with a surprise sticker",
		},
		Policies: Policies{
			LeadTimeDays:  2,
			RushPolicy:    "Rush orders subject to availability; message first.",
			Payment:       "Prepay to confirm order.",
			Cancellations: "24h notice for changes/cancellations.",
		},
	}
}

// JSON renders the knowledge base as indented JSON
func (b Base) JSON() string {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		// Base holds only strings, ints and slices of them.
		return "{}"
	}
	return string(data)
}

// HasCookie reports whether flavor is a listed cookie
func (b Base) HasCookie(flavor string) bool {
	for _, c := range b.Products.Cookies {
		if strings.EqualFold(c, flavor) {
			return true
		}
	}
	return false
}

const groundingRules = `Rules:
- If the user asks about items not in the KB, suggest close alternatives.
- For orders, ask for any missing fields and then summarize.
- When giving packaging/pickup steps, reflect the KB (labels, allergens, 78°F ice-pack rule).
- ALWAYS keep the warm Fairytale Farms voice.`

// Injector merges the knowledge base into prompts of personas that need grounding
type Injector struct {
	kb Base
}

// NewInjector creates an injector for kb
func NewInjector(kb Base) *Injector {
	return &Injector{kb: kb}
}

// KnowledgeBase returns the injector's knowledge base
func (i *Injector) KnowledgeBase() Base {
	return i.kb
}

// BuildEffectivePrompt returns the system prompt sent to the vendor for p.
// A non-blank override replaces the persona template as the base prompt.
func (i *Injector) BuildEffectivePrompt(p models.Persona, override string) string {
	base := p.SystemPrompt
	if strings.TrimSpace(override) != "" {
		base = override
	}
	if !p.KnowledgeBase {
		return base
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nYou created and run ")
	sb.WriteString(i.kb.Brand.Name)
	sb.WriteString(". Treat all questions as if they are about your own bakery.\n")
	sb.WriteString("Use the following KNOWLEDGE_BASE as ground truth for offerings, packaging, and ops.\n\n")
	sb.WriteString("KNOWLEDGE_BASE (JSON):\n")
	sb.WriteString(i.kb.JSON())
	sb.WriteString("\n\n")
	sb.WriteString(groundingRules)
	return sb.String()
}
