package nutrition

import (
	"math"
	"strings"
)

// UnitConverter turns a parsed quantity into grams using the unit tables.
type UnitConverter struct {
	tables        *Tables
	defaultWeight float64
}

func NewUnitConverter(tables *Tables, defaultWeight float64) *UnitConverter {
	if defaultWeight <= 0 {
		defaultWeight = DefaultWeightGrams
	}
	return &UnitConverter{tables: tables, defaultWeight: defaultWeight}
}

// ToGrams converts value units of the named ingredient to grams. Household
// measures look up the exact ingredient name, then its category, then the
// measure default. The result is never negative.
func (c *UnitConverter) ToGrams(value float64, unit Unit, name string, size Size) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	name = strings.ToLower(strings.TrimSpace(name))
	units := c.tables.Units

	if factor, ok := units.Fixed[unit]; ok {
		return value * factor
	}

	measure, ok := units.Measures[unit]
	if !ok {
		return value * c.defaultWeight
	}

	if (unit == UnitLeaf || unit == UnitLeaves) && strings.Contains(name, "curry") {
		return value * units.CurryLeafGrams
	}
	if unit == UnitPiece {
		if sized, ok := units.SizedPieces[name]; ok {
			return value * sized.For(size)
		}
	}

	if g, ok := measure.Grams[name]; ok {
		return value * g
	}
	if g, ok := measure.Grams[c.tables.CategoryOf(name)]; ok {
		return value * g
	}
	return value * measure.Default
}
