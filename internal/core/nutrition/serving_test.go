package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServingResolve(t *testing.T) {
	r := NewServingResolver(MustDefaultTables())

	assert.Equal(t, ServingSize{Quantity: "200ml", Unit: "_katori"}, r.Resolve("Dal"))
	assert.Equal(t, ServingSize{Quantity: "1", Unit: "_piece"}, r.Resolve("Roti"))
	assert.Equal(t, ServingSize{Quantity: "100", Unit: "g"}, r.Resolve("Soup"))
	assert.Equal(t, "100g", r.Resolve("Dry Sabzi").Descriptor())
}

func TestServingRatio(t *testing.T) {
	r := NewServingResolver(MustDefaultTables())

	tests := []struct {
		name    string
		serving ServingSize
		total   float64
		want    float64
	}{
		{name: "discrete", serving: ServingSize{Quantity: "1", Unit: "_piece"}, total: 0, want: 0.25},
		{name: "millilitres", serving: ServingSize{Quantity: "200ml", Unit: "_katori"}, total: 900, want: 0.2},
		{name: "grams", serving: ServingSize{Quantity: "150g", Unit: "_bowl"}, total: 600, want: 0.25},
		{name: "bare number", serving: ServingSize{Quantity: "100", Unit: "g"}, total: 400, want: 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Ratio(tt.serving, tt.total)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := r.Ratio(ServingSize{Quantity: "100g"}, 0)
	assert.Error(t, err)

	_, err = r.Ratio(ServingSize{Quantity: "a bowl"}, 500)
	assert.Error(t, err)
}

func TestEstimateTotalWeight(t *testing.T) {
	r := NewServingResolver(MustDefaultTables())

	heavy := []StandardizedIngredient{
		{Name: "dal", WeightGrams: 300},
		{Name: "water", WeightGrams: 200},
		{Name: "salt", Quantity: "to taste"},
	}
	light := []StandardizedIngredient{{Name: "rice", WeightGrams: 150}}

	assert.InDelta(t, 650, r.EstimateTotalWeight(heavy, "Dal"), 1e-9)
	assert.InDelta(t, 500, r.EstimateTotalWeight(heavy, "Dry Sabzi"), 1e-9)
	assert.InDelta(t, 800, r.EstimateTotalWeight(light, "Rice"), 1e-9)
	assert.InDelta(t, 700, r.EstimateTotalWeight(light, "Soup"), 1e-9)
}
