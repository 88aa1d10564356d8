package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrition-calculator/internal/pkg/common"
)

type stubRecipes struct {
	recipe *Recipe
	err    error
	calls  int
}

func (s *stubRecipes) FetchRecipe(_ context.Context, dishName string) (*Recipe, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.recipe == nil {
		return &Recipe{DishName: dishName}, nil
	}
	return s.recipe, nil
}

type stubClassifier struct {
	dishType string
	calls    int
}

func (s *stubClassifier) Classify(context.Context, string, *Recipe) string {
	s.calls++
	return s.dishType
}

type pingStore struct {
	fakeStore
	pingErr error
}

func (s *pingStore) Ping(context.Context) error { return s.pingErr }

func newTestCalculator(t *testing.T, recipes RecipeSource, classifier DishClassifier, store ReferenceStore) *Calculator {
	t.Helper()
	c, err := NewCalculator(Deps{
		Tables:     MustDefaultTables(),
		Recipes:    recipes,
		Classifier: classifier,
		Store:      store,
	})
	require.NoError(t, err)
	return c
}

func jeeraRice() *Recipe {
	return &Recipe{
		DishName: "Jeera Rice",
		Ingredients: []RawIngredient{
			{Name: "Basmati rice", Quantity: "1 cup"},
			{Name: "Ghee", Quantity: "1 tablespoon"},
			{Name: "Cumin seeds", Quantity: "1 teaspoon"},
			{Name: "Salt", Quantity: "to taste"},
		},
	}
}

func TestNewCalculatorRequiresCollaborators(t *testing.T) {
	_, err := NewCalculator(Deps{Tables: MustDefaultTables()})
	assert.Error(t, err)

	_, err = NewCalculator(Deps{Recipes: &stubRecipes{}, Classifier: &stubClassifier{}})
	assert.Error(t, err)
}

func TestCalculateForDish(t *testing.T) {
	classifier := &stubClassifier{dishType: "Rice"}
	c := newTestCalculator(t, &stubRecipes{recipe: jeeraRice()}, classifier, &fakeStore{})

	result, err := c.CalculateForDish(context.Background(), "Jeera Rice")
	require.NoError(t, err)

	assert.Equal(t, "Jeera Rice", result.DishName)
	assert.Equal(t, "Rice", result.DishType)
	assert.Equal(t, "estimated_nutrition_per_150g_bowl", result.NutritionKey())
	assert.Equal(t, 1, classifier.calls)

	require.Len(t, result.IngredientsUsed, 4)
	assert.Equal(t, IngredientRow{Ingredient: "basmati rice", Quantity: "1 cup", MatchedTo: LabelEstimated}, result.IngredientsUsed[0])
	assert.Equal(t, LabelExcluded, result.IngredientsUsed[3].MatchedTo)

	floor := MustDefaultTables().Plausibility.DishFloors["Rice"]
	v := result.PerServing
	assert.GreaterOrEqual(t, v.Calories, floor.Calories)
	assert.GreaterOrEqual(t, v.Carbs, floor.Carbs)
	assert.LessOrEqual(t, v.Fiber, MustDefaultTables().Plausibility.FiberCaps["Rice"])
	assert.Equal(t, v, v.Round1())
}

func TestCalculateForDishWithoutRecipe(t *testing.T) {
	tests := []struct {
		name    string
		recipes *stubRecipes
	}{
		{name: "empty recipe", recipes: &stubRecipes{}},
		{name: "recipe error", recipes: &stubRecipes{recipe: &Recipe{Error: "no such dish", Ingredients: []RawIngredient{{Name: "x", Quantity: "1"}}}}},
		{name: "fetch failure", recipes: &stubRecipes{err: errors.New("upstream timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &stubClassifier{dishType: "Dal"}
			c := newTestCalculator(t, tt.recipes, classifier, nil)

			result, err := c.CalculateForDish(context.Background(), "Mystery Dish")
			assert.Nil(t, result)

			var dishErr *DishError
			require.ErrorAs(t, err, &dishErr)
			assert.Equal(t, MsgNoRecipe, dishErr.Message)
			assert.Equal(t, http.StatusBadGateway, common.StatusOf(err))

			data, mErr := json.Marshal(dishErr)
			require.NoError(t, mErr)
			assert.JSONEq(t, `{"error":"Could not fetch recipe or no ingredients found","dish_name":"Mystery Dish"}`, string(data))
			assert.Zero(t, classifier.calls)
		})
	}
}

func TestCalculateForDishPredefined(t *testing.T) {
	recipes := &stubRecipes{recipe: &Recipe{Ingredients: []RawIngredient{
		{Name: "Rice", Quantity: "2 cups"},
		{Name: "Salt", Quantity: "to taste"},
	}}}
	classifier := &stubClassifier{dishType: "Breakfast"}
	c := newTestCalculator(t, recipes, classifier, nil)

	result, err := c.CalculateForDish(context.Background(), "  Masala Dosa ")
	require.NoError(t, err)

	assert.Equal(t, DishTypeSouthIndian, result.DishType)
	assert.Equal(t, NutrientVector{Calories: 180, Protein: 5, Carbs: 30, Fat: 7, Fiber: 3}, result.PerServing)
	assert.Equal(t, "estimated_nutrition_per_1_piece", result.NutritionKey())
	assert.Zero(t, classifier.calls)

	require.Len(t, result.IngredientsUsed, 2)
	assert.Equal(t, LabelPredefined, result.IngredientsUsed[0].MatchedTo)
	assert.Equal(t, LabelExcluded, result.IngredientsUsed[1].MatchedTo)
}

func TestCalculateForDishPredefinedWithoutRecipe(t *testing.T) {
	c := newTestCalculator(t, &stubRecipes{err: errors.New("offline")}, &stubClassifier{}, nil)

	result, err := c.CalculateForDish(context.Background(), "idli")
	require.NoError(t, err)
	assert.Empty(t, result.IngredientsUsed)
	assert.Equal(t, "estimated_nutrition_per_2_pieces", result.NutritionKey())
}

func TestCalculateForDishStoreUnavailable(t *testing.T) {
	store := &pingStore{pingErr: errors.New("no reachable servers")}
	c := newTestCalculator(t, &stubRecipes{recipe: jeeraRice()}, &stubClassifier{dishType: "Rice"}, store)

	_, err := c.CalculateForDish(context.Background(), "Jeera Rice")

	var dishErr *DishError
	require.ErrorAs(t, err, &dishErr)
	assert.Equal(t, "Error processing dish: nutrition reference store unavailable", dishErr.Message)
	assert.Equal(t, "Jeera Rice", dishErr.DishName)
	assert.Equal(t, http.StatusServiceUnavailable, common.StatusOf(err))
}
