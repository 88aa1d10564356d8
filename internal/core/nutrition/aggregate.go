package nutrition

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"nutrition-calculator/internal/pkg/common"
)

// Aggregator sums per-ingredient contributions into recipe totals.
type Aggregator struct {
	resolver  Resolver
	corrector *Corrector
}

func NewAggregator(resolver Resolver, corrector *Corrector) *Aggregator {
	return &Aggregator{resolver: resolver, corrector: corrector}
}

// Aggregate returns the corrected totals and one display row per ingredient.
func (a *Aggregator) Aggregate(ctx context.Context, ingredients []StandardizedIngredient) (NutrientVector, []IngredientRow) {
	totals, rows := a.Sum(ctx, ingredients)
	return a.corrector.CorrectTotals(totals, len(rows)), rows
}

// Sum is Aggregate without the totals correction. A failing ingredient is
// reported in its row and contributes nothing.
func (a *Aggregator) Sum(ctx context.Context, ingredients []StandardizedIngredient) (NutrientVector, []IngredientRow) {
	var totals NutrientVector
	rows := make([]IngredientRow, 0, len(ingredients))

	for _, ing := range ingredients {
		row := IngredientRow{Ingredient: ing.Name, Quantity: ing.Quantity}

		if ing.Excluded() {
			row.MatchedTo = LabelExcluded
			rows = append(rows, row)
			continue
		}

		contribution, label, err := a.contribution(ctx, ing)
		if err != nil {
			common.LogError("failed to process ingredient",
				zap.String("ingredient", ing.Name),
				zap.Error(err),
			)
			row.MatchedTo = LabelNotCalculated
			rows = append(rows, row)
			continue
		}

		totals = totals.Add(contribution)
		row.MatchedTo = label
		rows = append(rows, row)
	}
	return totals, rows
}

func (a *Aggregator) contribution(ctx context.Context, ing StandardizedIngredient) (v NutrientVector, label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	w := ing.WeightGrams
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return NutrientVector{}, "", fmt.Errorf("invalid weight %v", w)
	}

	match := a.resolver.Resolve(ctx, ing.Name)
	return match.Per100g.Scale(w / 100), match.Label, nil
}
