package nutrition

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"nutrition-calculator/internal/pkg/common"
)

var (
	excludedPhrases = []string{"to taste", "for garnish", "as needed"}
	firstIntPattern = regexp.MustCompile(`\d+`)
)

// IsExcludedQuantity reports whether a quantity marks a display-only ingredient.
func IsExcludedQuantity(quantity string) bool {
	return containsAny(strings.ToLower(quantity), excludedPhrases)
}

// Standardizer turns raw recipe lines into weighed ingredients.
type Standardizer struct {
	tables        *Tables
	normalizer    *NameNormalizer
	converter     *UnitConverter
	defaultWeight float64
}

func NewStandardizer(tables *Tables, opts Options) *Standardizer {
	opts = opts.withDefaults()
	return &Standardizer{
		tables:        tables,
		normalizer:    NewNameNormalizer(tables),
		converter:     NewUnitConverter(tables, opts.DefaultWeightGrams),
		defaultWeight: opts.DefaultWeightGrams,
	}
}

// Standardize weighs every ingredient. Excluded ingredients are kept with
// zero weight under their raw lower-cased name; lines with an empty name or quantity are dropped; a line that
// fails is kept with the default weight.
func (s *Standardizer) Standardize(raws []RawIngredient) []StandardizedIngredient {
	out := make([]StandardizedIngredient, 0, len(raws))
	for _, raw := range raws {
		item, keep, err := s.standardizeOne(raw)
		if err != nil {
			common.LogWarn("failed to standardize ingredient, using default weight",
				zap.String("ingredient", raw.Name),
				zap.String("quantity", raw.Quantity),
				zap.Error(err),
			)
			out = append(out, s.fallback(raw))
			continue
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

func (s *Standardizer) standardizeOne(raw RawIngredient) (item StandardizedIngredient, keep bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	name := strings.ToLower(strings.TrimSpace(raw.Name))
	quantity := FixQuantity(name, strings.ToLower(strings.TrimSpace(raw.Quantity)))

	if IsExcludedQuantity(quantity) {
		return StandardizedIngredient{Name: name, Quantity: quantity}, true, nil
	}
	if name == "" || quantity == "" {
		return StandardizedIngredient{}, false, nil
	}

	normalized := s.normalizer.Normalize(name)
	pq := ParseQuantity(quantity, name)
	if !pq.Parsed() {
		return StandardizedIngredient{
			Name:        normalized,
			Quantity:    quantity,
			WeightGrams: s.EstimateWeight(name, quantity),
		}, true, nil
	}

	// zero weight is reserved for excluded ingredients
	grams := s.converter.ToGrams(*pq.Value, pq.Unit, normalized, pq.Size)
	if grams <= 0 {
		grams = s.EstimateWeight(name, quantity)
	}

	return StandardizedIngredient{
		Name:        normalized,
		Quantity:    FormatQuantity(*pq.Value, pq.Unit),
		WeightGrams: grams,
	}, true, nil
}

func (s *Standardizer) fallback(raw RawIngredient) StandardizedIngredient {
	name, quantity := raw.Name, raw.Quantity
	if strings.TrimSpace(name) == "" {
		name = "unknown"
	}
	if strings.TrimSpace(quantity) == "" {
		quantity = "unknown"
	}
	return StandardizedIngredient{
		Name:        s.normalizer.Normalize(name),
		Quantity:    quantity,
		WeightGrams: s.defaultWeight,
	}
}

// FixQuantity repairs quantities recipe sources commonly get wrong.
func FixQuantity(name, quantity string) string {
	if quantity == "for cooking" || quantity == "as needed for cooking" {
		if strings.Contains(name, "oil") || strings.Contains(name, "ghee") {
			return "2 tablespoons"
		}
	}
	if strings.Contains(name, "curry") && strings.Contains(name, "leaves") && strings.Contains(quantity, "liter") {
		if n := firstIntPattern.FindString(quantity); n != "" {
			return n + " leaves"
		}
	}
	return quantity
}

// EstimateWeight guesses grams for a quantity without a usable number.
func (s *Standardizer) EstimateWeight(name, quantity string) float64 {
	name = strings.ToLower(name)
	quantity = strings.ToLower(quantity)
	d := s.tables.Units.Descriptions

	if strings.Contains(quantity, "for cooking") {
		if strings.Contains(name, "oil") || strings.Contains(name, "ghee") {
			return d.CookingFat
		}
		if strings.Contains(name, "salt") {
			return d.CookingSalt
		}
	}

	for _, p := range d.Phrases {
		if containsAny(quantity, p.Words) {
			return p.Grams
		}
	}

	if category := s.tables.CategoryOf(name); category != categoryDefault {
		if g, ok := d.Categories[category]; ok {
			return g
		}
	}
	return s.defaultWeight
}
