package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	vulgarFractions = map[string]float64{
		"½": 0.5,
		"¼": 0.25,
		"¾": 0.75,
		"⅓": 1.0 / 3,
		"⅔": 2.0 / 3,
	}

	mixedFractionPattern = regexp.MustCompile(`(\d+)\s*([½¼¾⅓⅔])`)
	numberPattern        = regexp.MustCompile(`\d+(?:\.\d+)?(?:/\d+)?`)
	// a unit must stand alone: glued to a number is fine, glued to a letter is not
	unitPattern = regexp.MustCompile(`(?:^|[^a-z])(cup|tablespoon|tbsp|teaspoon|tsp|gram|gm|gr|g|kilogram|kg|ml|liter|litre|ltr|lt|l|piece|katori|glass|leaves|leaf|inch)(?:e?s)?(?:[^a-z]|$)`)

	unitAliases = map[string]Unit{
		"tbsp":  UnitTablespoon,
		"tsp":   UnitTeaspoon,
		"g":     UnitGram,
		"gm":    UnitGram,
		"gr":    UnitGram,
		"kg":    UnitKilogram,
		"l":     UnitLiter,
		"litre": UnitLiter,
		"ltr":   UnitLiter,
		"lt":    UnitLiter,
	}

	countableVegetables = []string{"onion", "tomato", "potato"}
)

// ParseQuantity splits a free-text quantity into value, unit and size.
// It never fails: a missing number leaves Value nil.
func ParseQuantity(text, ingredient string) ParsedQuantity {
	text = normalizeFractions(strings.ToLower(text))
	ingredient = strings.ToLower(ingredient)

	pq := ParsedQuantity{Size: detectSize(text)}

	raw := numberPattern.FindString(text)
	if raw == "" {
		return pq
	}
	value, ok := parseNumber(raw)
	if !ok {
		return pq
	}
	pq.Value = &value

	if m := unitPattern.FindStringSubmatch(text); m != nil {
		pq.Unit = canonicalUnit(m[1])
		return pq
	}

	switch {
	case strings.Contains(text, "pinch"):
		pq.Unit = UnitPinch
	case strings.Contains(ingredient, "curry") && strings.Contains(text, "leaves"):
		pq.Unit = UnitLeaves
	case containsAny(ingredient, countableVegetables):
		pq.Unit = UnitPiece
	default:
		// known approximation: anything countable-looking is a piece
		pq.Unit = UnitPiece
	}
	return pq
}

func normalizeFractions(text string) string {
	text = mixedFractionPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := mixedFractionPattern.FindStringSubmatch(m)
		whole, _ := strconv.ParseFloat(parts[1], 64)
		return strconv.FormatFloat(whole+vulgarFractions[parts[2]], 'f', -1, 64)
	})
	for glyph, v := range vulgarFractions {
		text = strings.ReplaceAll(text, glyph, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return text
}

func detectSize(text string) Size {
	switch {
	case strings.Contains(text, "large"):
		return SizeLarge
	case strings.Contains(text, "medium"):
		return SizeMedium
	case strings.Contains(text, "small"):
		return SizeSmall
	}
	return SizeDefault
}

func parseNumber(raw string) (float64, bool) {
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func canonicalUnit(token string) Unit {
	if u, ok := unitAliases[token]; ok {
		return u
	}
	return Unit(token)
}

// FormatQuantity renders a parsed quantity for display ("0.5 cup").
func FormatQuantity(value float64, unit Unit) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + string(unit)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
