package nutrition

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDishNutritionResultJSON(t *testing.T) {
	result := &DishNutritionResult{
		DishName:   "Dal Tadka",
		DishType:   "Dal",
		Serving:    ServingSize{Quantity: "200ml", Unit: "_katori"},
		PerServing: NutrientVector{Calories: 210.5, Protein: 11, Carbs: 25, Fat: 6, Fiber: 5},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	s := string(data)

	assert.Equal(t, "estimated_nutrition_per_200ml_katori", result.NutritionKey())
	assert.Contains(t, s, `"estimated_nutrition_per_200ml_katori":{"calories":210.5,"protein":11,"carbs":25,"fat":6,"fiber":5}`)
	assert.Contains(t, s, `"ingredients_used":[]`)

	keys := []string{`"dish_name"`, `"dish_type"`, `"estimated_nutrition_per_`, `"ingredients_used"`}
	last := -1
	for _, k := range keys {
		i := strings.Index(s, k)
		require.Greater(t, i, last, k)
		last = i
	}
}

func TestDishErrorJSON(t *testing.T) {
	err := &DishError{Message: MsgNoRecipe, DishName: "Mystery Dish"}

	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)
	assert.JSONEq(t, `{"error":"Could not fetch recipe or no ingredients found","dish_name":"Mystery Dish"}`, string(data))
	assert.Equal(t, MsgNoRecipe, err.Error())
}
