package nutrition

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"nutrition-calculator/internal/pkg/common"
)

// maxTotalsPasses bounds the fixed-point loop of CorrectTotals.
const maxTotalsPasses = 5

// Corrector clamps computed nutrition into believable ranges. Every rule is
// a floor, a cap or a bounded rescale.
type Corrector struct {
	rules PlausibilityTables
}

func NewCorrector(tables *Tables) *Corrector {
	return &Corrector{rules: tables.Plausibility}
}

// CorrectTotals applies the recipe-level checks until the vector stops
// changing, so CorrectTotals(CorrectTotals(v, n), n) == CorrectTotals(v, n).
// rows is the number of ingredient rows, excluded rows included.
func (c *Corrector) CorrectTotals(v NutrientVector, rows int) NutrientVector {
	for i := 0; i < maxTotalsPasses; i++ {
		next := c.totalsPass(v, rows)
		if next == v {
			break
		}
		v = next
	}
	return v
}

func (c *Corrector) totalsPass(v NutrientVector, rows int) NutrientVector {
	r := c.rules.Totals

	if v.Calories < r.LowCalorieLimit && rows > r.MinRows {
		factor := math.Min(r.TargetCalories/math.Max(v.Calories, 1), r.MaxScale)
		common.LogDebug("calories too low, rescaling totals", zap.Float64("factor", factor))
		v = v.Scale(factor)
	}

	mass := v.Protein + v.Carbs + v.Fat + v.Fiber
	if v.Fiber > r.FiberShareLimit*mass {
		v.Fiber = r.FiberShareTarget * mass
	}
	if v.Fiber > r.FiberCap {
		v.Fiber = r.FiberCapValue
	}

	if macro := v.MacroCalories(); macro > 0 && math.Abs(v.Calories-macro)/macro > r.MacroDeviation {
		v.Calories = macro
	}

	return v.Max(r.Floor)
}

// CorrectServing applies the per-serving rules for dishType: dish floors,
// the fiber cap, the global floor and, for South Indian dishes, the
// name-keyed clamps. Unknown dish types only get the global floor.
func (c *Corrector) CorrectServing(v NutrientVector, dishType, dishName string) NutrientVector {
	if floor, ok := c.rules.DishFloors[dishType]; ok {
		v = v.Max(floor)
	}
	if limit, ok := c.rules.FiberCaps[dishType]; ok && v.Fiber > limit {
		v.Fiber = limit
	}
	v = v.Max(c.rules.GlobalFloor)

	if dishType == DishTypeSouthIndian {
		if o, ok := c.southIndianOverride(strings.ToLower(dishName)); ok {
			v = v.Max(o.Floor)
			v.Fiber = math.Min(v.Fiber, o.FiberMax)
		}
	}
	return v
}

func (c *Corrector) southIndianOverride(name string) (NameOverride, bool) {
	for _, o := range c.rules.SouthIndian {
		matched := true
		for _, word := range o.Contains {
			if !strings.Contains(name, word) {
				matched = false
				break
			}
		}
		if matched {
			return o, true
		}
	}
	return NameOverride{}, false
}
