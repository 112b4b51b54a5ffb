package logic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairytale-chat/internal/models"
)

func TestFormatContextMessage(t *testing.T) {
	msg, err := FormatContextMessage(OrderContext{
		CookieFlavors: []string{"Chocolate Chip", "Peanut Butter"},
		CookieQty:     12,
		IncludeMilk:   true,
		Form: ContextForm{
			Customer: models.Customer{Name: "Sarah Johnson"},
			Pickup:   models.Pickup{Date: "2024-07-01", Time: "15:00", Method: models.PickupPorch},
		},
	})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(msg, "Context: "))
	assert.JSONEq(t, `{
		"cookieFlavors": ["Chocolate Chip", "Peanut Butter"],
		"cookieQty": 12,
		"includeMilk": true,
		"form": {
			"customer": {"name": "Sarah Johnson", "email": "", "phone": "", "instagram": ""},
			"pickup": {"date": "2024-07-01", "time": "15:00", "method": "porch", "address": ""}
		}
	}`, strings.TrimPrefix(msg, "Context: "))
}

func TestFormatContextMessage_EmptyFlavorsIsArray(t *testing.T) {
	msg, err := FormatContextMessage(OrderContext{CookieQty: 6})
	require.NoError(t, err)
	assert.Contains(t, msg, `"cookieFlavors":[]`)
}

func TestWithContextMessage(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleAssistant, Content: "Welcome"},
		{Role: models.RoleUser, Content: "12 cookies"},
	}

	out, err := WithContextMessage(history, OrderContext{CookieQty: 12})
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Len(t, history, 2, "history must not grow")
	assert.Equal(t, models.RoleAssistant, out[2].Role)
	assert.True(t, strings.HasPrefix(out[2].Content, "Context: {"))
}
