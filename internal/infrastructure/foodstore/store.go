// Package foodstore persists the per-100g nutrition reference used by the
// ingredient matcher.
package foodstore

import (
	"context"
	"math"

	"nutrition-calculator/internal/core/nutrition"
)

// Store is a nutrition reference that can also be written to.
type Store interface {
	nutrition.ReferenceStore
	nutrition.Pinger
	Upsert(ctx context.Context, rec nutrition.FoodRecord) error
	Close(ctx context.Context) error
}

// Food is the wire shape of a reference entry, shared by the Mongo documents
// and the seed files. Missing nutrients are null.
type Food struct {
	Name     string   `json:"food_name" bson:"food_name"`
	Calories *float64 `json:"energy_kcal" bson:"energy_kcal"`
	Protein  *float64 `json:"protein_g" bson:"protein_g"`
	Carbs    *float64 `json:"carb_g" bson:"carb_g"`
	Fat      *float64 `json:"fat_g" bson:"fat_g"`
	Fiber    *float64 `json:"fibre_g" bson:"fibre_g"`
}

// Record converts f, reading missing or invalid nutrients as zero.
func (f Food) Record() nutrition.FoodRecord {
	return nutrition.FoodRecord{
		Name: f.Name,
		Per100g: nutrition.NutrientVector{
			Calories: value(f.Calories),
			Protein:  value(f.Protein),
			Carbs:    value(f.Carbs),
			Fat:      value(f.Fat),
			Fiber:    value(f.Fiber),
		},
	}
}

// FoodFromRecord is the inverse of Record.
func FoodFromRecord(rec nutrition.FoodRecord) Food {
	v := rec.Per100g
	return Food{
		Name:     rec.Name,
		Calories: &v.Calories,
		Protein:  &v.Protein,
		Carbs:    &v.Carbs,
		Fat:      &v.Fat,
		Fiber:    &v.Fiber,
	}
}

func value(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0
	}
	return *p
}
