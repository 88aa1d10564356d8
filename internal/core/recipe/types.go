package recipe

import (
	"errors"
	"fmt"
	"strings"

	"nutrition-calculator/internal/core/nutrition"
)

var errNoModel = errors.New("no model configured")

// Dish categories a dish can be classified into.
const (
	CategoryWetSabzi    = "Wet Sabzi"
	CategoryDrySabzi    = "Dry Sabzi"
	CategoryDal         = "Dal"
	CategoryRice        = "Rice"
	CategoryRoti        = "Roti"
	CategoryParatha     = "Paratha"
	CategoryNonVegCurry = "Non-Veg Curry"
	CategoryDessert     = "Dessert"
	CategoryChaat       = "Chaat"
	CategorySouthIndian = "South Indian"
	CategoryBreakfast   = "Breakfast"
)

// Categories lists every category in prompt order.
var Categories = []string{
	CategoryWetSabzi,
	CategoryDrySabzi,
	CategoryDal,
	CategoryRice,
	CategoryRoti,
	CategoryParatha,
	CategoryNonVegCurry,
	CategoryDessert,
	CategoryChaat,
	CategorySouthIndian,
	CategoryBreakfast,
}

// generatedRecipe is the JSON object the model is asked for. Quantities
// sometimes come back as bare numbers.
type generatedRecipe struct {
	DishName    string                `json:"dish_name"`
	Ingredients []generatedIngredient `json:"ingredients"`
}

type generatedIngredient struct {
	Name     string      `json:"name"`
	Quantity interface{} `json:"quantity"`
}

func (g generatedRecipe) toRecipe(dishName string) *nutrition.Recipe {
	r := &nutrition.Recipe{
		DishName:    strings.TrimSpace(g.DishName),
		Ingredients: make([]nutrition.RawIngredient, 0, len(g.Ingredients)),
	}
	if r.DishName == "" {
		r.DishName = dishName
	}

	for _, ing := range g.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, nutrition.RawIngredient{
			Name:     name,
			Quantity: quantityString(ing.Quantity),
		})
	}
	return r
}

func quantityString(v interface{}) string {
	switch q := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(q)
	default:
		return fmt.Sprint(q)
	}
}
