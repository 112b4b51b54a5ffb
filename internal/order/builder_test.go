package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairytale-chat/internal/knowledge"
	"fairytale-chat/internal/models"
)

func TestSplitEvenly(t *testing.T) {
	tests := []struct {
		name  string
		total int
		n     int
		want  []int
	}{
		{"even", 12, 2, []int{6, 6}},
		{"remainder to first", 12, 5, []int{3, 3, 2, 2, 2}},
		{"single", 6, 1, []int{6}},
		{"more parts than total", 2, 3, []int{1, 1, 0}},
		{"no parts", 6, 0, nil},
		{"negative total", -3, 2, []int{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitEvenly(tt.total, tt.n)
			assert.Equal(t, tt.want, got)
			sum := 0
			for _, p := range got {
				sum += p
			}
			if tt.n > 0 && tt.total >= 0 {
				assert.Equal(t, tt.total, sum)
			}
		})
	}
}

func TestDefaultItems(t *testing.T) {
	b := BuilderState{Flavors: []string{"Chocolate Chip", "Sugar", "Snickerdoodle"}, Qty: 2}
	items := b.DefaultItems()

	require.Len(t, items, 2, "zero-quantity shares are dropped")
	assert.Equal(t, models.LineItem{Type: "cookie", Flavor: "Chocolate Chip", Qty: 1}, items[0])
	assert.Equal(t, "Sugar", items[1].Flavor)

	assert.Empty(t, DefaultBuilder().DefaultItems())
}

func TestBuilderValidate(t *testing.T) {
	kb := knowledge.Default()

	assert.NoError(t, BuilderState{Flavors: []string{"Sugar"}, Qty: 12}.Validate(kb))
	assert.NoError(t, DefaultBuilder().Validate(kb))
	assert.ErrorIs(t, BuilderState{Qty: 0}.Validate(kb), ErrInvalidBuilder)
	assert.ErrorIs(t, BuilderState{Flavors: []string{"Kale"}, Qty: 6}.Validate(kb), ErrInvalidBuilder)
	assert.ErrorIs(t, BuilderState{Flavors: []string{"Sugar", "Sugar"}, Qty: 6}.Validate(kb), ErrInvalidBuilder)
}

func TestFormValidate(t *testing.T) {
	complete := Form{
		Customer: models.Customer{Name: "Sarah Johnson"},
		Pickup:   models.Pickup{Date: "2024-07-01", Time: "15:00"},
	}
	assert.NoError(t, complete.Validate())

	tests := []struct {
		name   string
		mutate func(f *Form)
	}{
		{"missing name", func(f *Form) { f.Customer.Name = "  " }},
		{"missing date", func(f *Form) { f.Pickup.Date = "" }},
		{"missing time", func(f *Form) { f.Pickup.Time = "" }},
		{"bad method", func(f *Form) { f.Pickup.Method = "drone" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := complete
			tt.mutate(&f)
			assert.ErrorIs(t, f.Validate(), ErrIncompleteForm)
		})
	}
}
