package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairytale-chat/internal/models"
)

func sampleOrder() models.OrderDraft {
	return models.OrderDraft{
		Customer: models.Customer{Name: "Sarah Johnson", Email: "sarah@example.com", Phone: "555-0100", Instagram: "@sarahbakes"},
		Pickup:   models.Pickup{Date: "2024-07-01", Time: "15:00", Method: models.PickupPorch},
		Items: []models.LineItem{
			{Type: "cookie", Flavor: "Chocolate Chip", Qty: 6},
			{Type: "cookie", Flavor: "Peanut Butter", Qty: 6},
		},
		AddOns: models.AddOns{Milk: true},
		Notes:  "Birthday surprise",
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "New Fairytale Farms Order — Sarah Johnson", Subject(sampleOrder()))
	assert.Equal(t, "New Fairytale Farms Order — Customer", Subject(models.OrderDraft{}))
}

func TestFormatItem(t *testing.T) {
	tests := []struct {
		item models.LineItem
		want string
	}{
		{models.LineItem{Type: "cookie", Flavor: "Sugar", Qty: 6}, "Cookie — Sugar x 6"},
		{models.LineItem{Type: "brownie", Variant: "Walnut", Qty: 4}, "Brownie — Walnut x 4"},
		{models.LineItem{Type: "cake", Flavor: "Lemon", Size: "8in", Qty: 1}, "Cake — Lemon (8in) x 1"},
		{models.LineItem{Type: "cake", Flavor: "Lemon", Qty: 1}, "Cake — Lemon x 1"},
		{models.LineItem{Type: "milk", Qty: 2}, "milk x 2"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatItem(tt.item))
		})
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleOrder())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, `<div style="font-family:`))
	assert.Contains(t, html, "<h2>New Order</h2>")
	assert.Contains(t, html, "<strong>Name:</strong> Sarah Johnson")
	assert.Contains(t, html, "2024-07-01 @ 15:00 (porch)")
	assert.Contains(t, html, "<li>Cookie — Chocolate Chip x 6</li>")
	assert.Contains(t, html, "<li>Cookie — Peanut Butter x 6</li>")
	assert.Contains(t, html, "Milk: Yes")
	assert.Contains(t, html, "<h3>Notes</h3>")
	assert.Contains(t, html, "<h3>Raw JSON</h3>")
	assert.Contains(t, html, `<pre><code class="language-json">`)
	assert.Contains(t, html, "&quot;flavor&quot;: &quot;Peanut Butter&quot;")
	assert.NotContains(t, html, "Address:", "porch orders carry no address")
}

func TestRenderHTML_OptionalSections(t *testing.T) {
	order := sampleOrder()
	order.Notes = ""
	order.AddOns.Milk = false
	order.Pickup = models.Pickup{Date: "2024-07-01", Time: "15:00", Method: models.PickupDelivery, Address: "12 Oak Lane"}

	html, err := RenderHTML(order)
	require.NoError(t, err)

	assert.NotContains(t, html, "<h3>Notes</h3>")
	assert.Contains(t, html, "Milk: No")
	assert.Contains(t, html, "<strong>Address:</strong> 12 Oak Lane")
}

func TestRenderHTML_EscapesCustomerText(t *testing.T) {
	order := sampleOrder()
	order.Customer.Name = `<script>alert("x")</script>`
	order.Notes = "**not bold** and ``` fences"

	html, err := RenderHTML(order)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<strong>not bold</strong>")
	assert.Contains(t, html, "<h3>Raw JSON</h3>")
}

func TestCodeFence(t *testing.T) {
	assert.Equal(t, "```", codeFence(`{"a":1}`))
	assert.Equal(t, "````", codeFence("has ``` inside"))
}
