package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
)

// Unit is a canonical measurement unit.
type Unit string

const (
	UnitCup        Unit = "cup"
	UnitTablespoon Unit = "tablespoon"
	UnitTeaspoon   Unit = "teaspoon"
	UnitGram       Unit = "gram"
	UnitKilogram   Unit = "kilogram"
	UnitML         Unit = "ml"
	UnitLiter      Unit = "liter"
	UnitPiece      Unit = "piece"
	UnitKatori     Unit = "katori"
	UnitGlass      Unit = "glass"
	UnitLeaf       Unit = "leaf"
	UnitLeaves     Unit = "leaves"
	UnitInch       Unit = "inch"
	UnitPinch      Unit = "pinch"
)

// Size is the size qualifier found in a quantity ("1 large onion").
type Size string

const (
	SizeDefault Size = "default"
	SizeSmall   Size = "small"
	SizeMedium  Size = "medium"
	SizeLarge   Size = "large"
)

// Labels written to IngredientRow.MatchedTo.
const (
	LabelExcluded      = "Excluded from calculation"
	LabelEstimated     = "estimated values"
	LabelNotCalculated = "not calculated (error)"
	LabelPredefined    = "pre-defined nutrition profile"
)

// DishTypeSouthIndian triggers the name-keyed serving clamps.
const DishTypeSouthIndian = "South Indian"

// RawIngredient is one line of a fetched recipe.
type RawIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Recipe is what a RecipeSource returns for a dish.
type Recipe struct {
	DishName    string          `json:"dish_name"`
	Ingredients []RawIngredient `json:"ingredients"`
	Error       string          `json:"error,omitempty"`
}

// Usable reports whether the recipe can be calculated.
func (r *Recipe) Usable() bool {
	return r != nil && r.Error == "" && len(r.Ingredients) > 0
}

// ParsedQuantity is the result of ParseQuantity. A nil Value means the
// quantity could not be parsed and a description-based estimate applies.
type ParsedQuantity struct {
	Value *float64
	Unit  Unit
	Size  Size
}

// Parsed reports whether both a number and a unit were recovered.
func (p ParsedQuantity) Parsed() bool {
	return p.Value != nil && p.Unit != ""
}

// StandardizedIngredient is an ingredient with a resolved weight.
// WeightGrams is zero exactly when the ingredient is excluded from totals.
type StandardizedIngredient struct {
	Name        string  `json:"name"`
	Quantity    string  `json:"quantity"`
	WeightGrams float64 `json:"weight_grams"`
}

// Excluded reports whether the ingredient is display-only.
func (s StandardizedIngredient) Excluded() bool {
	return s.WeightGrams == 0
}

// NutrientVector holds the five tracked nutrients. It is used for per-100g
// reference values, per-ingredient contributions and running totals alike.
type NutrientVector struct {
	Calories float64 `json:"calories" yaml:"calories"`
	Protein  float64 `json:"protein" yaml:"protein"`
	Carbs    float64 `json:"carbs" yaml:"carbs"`
	Fat      float64 `json:"fat" yaml:"fat"`
	Fiber    float64 `json:"fiber" yaml:"fiber"`
}

func (v NutrientVector) Add(o NutrientVector) NutrientVector {
	return NutrientVector{
		Calories: v.Calories + o.Calories,
		Protein:  v.Protein + o.Protein,
		Carbs:    v.Carbs + o.Carbs,
		Fat:      v.Fat + o.Fat,
		Fiber:    v.Fiber + o.Fiber,
	}
}

func (v NutrientVector) Scale(f float64) NutrientVector {
	return NutrientVector{
		Calories: v.Calories * f,
		Protein:  v.Protein * f,
		Carbs:    v.Carbs * f,
		Fat:      v.Fat * f,
		Fiber:    v.Fiber * f,
	}
}

// Round1 rounds every nutrient to one decimal place.
func (v NutrientVector) Round1() NutrientVector {
	r := func(x float64) float64 { return math.Round(x*10) / 10 }
	return NutrientVector{
		Calories: r(v.Calories),
		Protein:  r(v.Protein),
		Carbs:    r(v.Carbs),
		Fat:      r(v.Fat),
		Fiber:    r(v.Fiber),
	}
}

// MacroCalories is the energy implied by protein, carbs and fat.
func (v NutrientVector) MacroCalories() float64 {
	return v.Protein*4 + v.Carbs*4 + v.Fat*9
}

// Max returns the element-wise maximum.
func (v NutrientVector) Max(o NutrientVector) NutrientVector {
	return NutrientVector{
		Calories: math.Max(v.Calories, o.Calories),
		Protein:  math.Max(v.Protein, o.Protein),
		Carbs:    math.Max(v.Carbs, o.Carbs),
		Fat:      math.Max(v.Fat, o.Fat),
		Fiber:    math.Max(v.Fiber, o.Fiber),
	}
}

// MatchSource says which tier resolved an ingredient.
type MatchSource string

const (
	SourceReferenceDB      MatchSource = "reference-db"
	SourceManualTable      MatchSource = "manual-table"
	SourceCategoryEstimate MatchSource = "category-estimate"
)

// MatchResult is the resolution of one ingredient name.
type MatchResult struct {
	Source  MatchSource
	Label   string
	Per100g NutrientVector
}

// IngredientRow is one display row of ingredients_used.
type IngredientRow struct {
	Ingredient string `json:"ingredient"`
	Quantity   string `json:"quantity"`
	MatchedTo  string `json:"matched_to"`
}

// ServingSize is a canonical serving, e.g. {"200ml", "_katori"}.
type ServingSize struct {
	Quantity string `json:"quantity" yaml:"quantity"`
	Unit     string `json:"unit" yaml:"unit"`
}

// Descriptor joins quantity and unit ("200ml_katori").
func (s ServingSize) Descriptor() string {
	return s.Quantity + s.Unit
}

// DishNutritionResult is the per-serving estimate for one dish.
type DishNutritionResult struct {
	DishName        string
	DishType        string
	Serving         ServingSize
	PerServing      NutrientVector
	IngredientsUsed []IngredientRow
}

// NutritionKey is the dynamic JSON key holding the per-serving vector.
func (r *DishNutritionResult) NutritionKey() string {
	return "estimated_nutrition_per_" + r.Serving.Descriptor()
}

// MarshalJSON writes dish_name, dish_type, estimated_nutrition_per_<serving>
// and ingredients_used in that order.
func (r *DishNutritionResult) MarshalJSON() ([]byte, error) {
	rows := r.IngredientsUsed
	if rows == nil {
		rows = []IngredientRow{}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	fields := []struct {
		key   string
		value interface{}
	}{
		{"dish_name", r.DishName},
		{"dish_type", r.DishType},
		{r.NutritionKey(), r.PerServing},
		{"ingredients_used", rows},
	}
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DishError is a dish-level failure reported instead of a result.
type DishError struct {
	Message  string
	DishName string
	Err      error
}

func (e *DishError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DishError) Unwrap() error {
	return e.Err
}

func (e *DishError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error    string `json:"error"`
		DishName string `json:"dish_name"`
	}{e.Message, e.DishName})
}

// MsgNoRecipe is reported when the recipe source has nothing usable.
const MsgNoRecipe = "Could not fetch recipe or no ingredients found"

// ErrFoodNotFound is returned by a ReferenceStore when no record matches.
var ErrFoodNotFound = errors.New("food not found")

// FoodRecord is one reference entry with per-100g values.
type FoodRecord struct {
	Name    string
	Per100g NutrientVector
}

// ReferenceStore is the read side of the nutrition reference. All lookups
// are case-insensitive and return ErrFoodNotFound on a miss.
type ReferenceStore interface {
	// FindExact matches the whole food name.
	FindExact(ctx context.Context, name string) (*FoodRecord, error)
	// FindContaining returns a food whose name contains fragment.
	FindContaining(ctx context.Context, fragment string) (*FoodRecord, error)
	// FindContainedIn returns the longest food name that occurs inside text.
	FindContainedIn(ctx context.Context, text string) (*FoodRecord, error)
	// FoodNames lists every food name for fuzzy comparison.
	FoodNames(ctx context.Context) ([]string, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RecipeSource supplies the ingredient list of a dish.
type RecipeSource interface {
	FetchRecipe(ctx context.Context, dishName string) (*Recipe, error)
}

// DishClassifier labels a dish with one of the dish types.
type DishClassifier interface {
	Classify(ctx context.Context, dishName string, recipe *Recipe) string
}
