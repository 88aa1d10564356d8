package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ServingResolver maps dish types to servings and servings to a fraction
// of the cooked recipe.
type ServingResolver struct {
	tables *Tables
}

func NewServingResolver(tables *Tables) *ServingResolver {
	return &ServingResolver{tables: tables}
}

// Resolve returns the canonical serving of dishType, {"100", "g"} when unknown.
func (r *ServingResolver) Resolve(dishType string) ServingSize {
	if s, ok := r.tables.Serving.Sizes[dishType]; ok {
		return s
	}
	return r.tables.Serving.Default
}

// EstimateTotalWeight estimates the cooked weight of the recipe. Recipes
// weighing under the minimum fall back to the dish type's batch weight;
// wet dishes gain cooking liquid.
func (r *ServingResolver) EstimateTotalWeight(ingredients []StandardizedIngredient, dishType string) float64 {
	st := r.tables.Serving

	var raw float64
	for _, ing := range ingredients {
		w := ing.WeightGrams
		if ing.Excluded() || w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		raw += w
	}

	if raw < st.MinRawWeight {
		if w, ok := st.BatchWeights[dishType]; ok {
			return w
		}
		return st.DefaultBatchWeight
	}
	if r.tables.wetTypes[dishType] {
		return raw * st.WetFactor
	}
	return raw
}

// Ratio is the share of the recipe one serving represents. A single
// discrete serving ("1") is a fixed quarter of the recipe.
func (r *ServingResolver) Ratio(serving ServingSize, totalWeight float64) (float64, error) {
	st := r.tables.Serving
	q := strings.TrimSpace(serving.Quantity)

	if q == "1" {
		return st.DiscreteRatio, nil
	}
	if totalWeight <= 0 {
		return 0, fmt.Errorf("invalid total weight %v", totalWeight)
	}

	if ml, ok := strings.CutSuffix(q, "ml"); ok {
		v, err := strconv.ParseFloat(ml, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid serving quantity %q: %w", serving.Quantity, err)
		}
		return v * st.MLDensity / totalWeight, nil
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(q, "g"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid serving quantity %q: %w", serving.Quantity, err)
	}
	return v / totalWeight, nil
}
