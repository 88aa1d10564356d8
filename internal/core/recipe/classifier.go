package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nutrition-calculator/internal/core/ai/service"
	"nutrition-calculator/internal/core/nutrition"
	"nutrition-calculator/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	classifySystemPrompt = "You are a helpful assistant that classifies Indian dishes."
	classifyTemperature  = 0.3
	classifyMaxTokens    = 20
)

// knownDishes are classified without asking the model.
var knownDishes = map[string]string{
	"chole bhature":        CategoryChaat,
	"paneer butter masala": CategoryWetSabzi,
	"butter chicken":       CategoryNonVegCurry,
	"dal makhani":          CategoryDal,
	"palak paneer":         CategoryWetSabzi,
	"aloo gobi":            CategoryDrySabzi,
	"biryani":              CategoryRice,
	"samosa":               CategoryChaat,
	"gulab jamun":          CategoryDessert,
	"pani puri":            CategoryChaat,
	"rajma chawal":         CategoryDal,
	"masala dosa":          CategorySouthIndian,
	"plain dosa":           CategorySouthIndian,
	"idli":                 CategorySouthIndian,
	"vada":                 CategorySouthIndian,
	"uttapam":              CategorySouthIndian,
	"sambar":               CategoryDal,
	"upma":                 CategoryBreakfast,
	"poha":                 CategoryBreakfast,
	"medu vada":            CategorySouthIndian,
	"rava dosa":            CategorySouthIndian,
	"pesarattu":            CategorySouthIndian,
	"appam":                CategorySouthIndian,
}

type keywordRule struct {
	category string
	words    []string
}

// nameRules are tried in order; the first rule with a word in the dish
// name wins.
var nameRules = []keywordRule{
	{CategorySouthIndian, []string{"dosa", "idli", "vada", "uttapam", "sambhar", "sambar", "appam", "pesarattu"}},
	{CategoryBreakfast, []string{"upma", "poha", "breakfast", "cereal", "porridge"}},
	{CategoryDal, []string{"dal", "daal", "lentil"}},
	{CategoryRice, []string{"rice", "pulao", "biryani"}},
	{CategoryRoti, []string{"roti", "chapati", "phulka", "naan"}},
	{CategoryParatha, []string{"paratha", "parantha"}},
	{CategoryChaat, []string{"chole bhature", "chana bhatura"}},
	{CategoryNonVegCurry, []string{"chicken", "mutton", "fish", "prawn", "egg", "meat", "lamb"}},
	{CategoryDessert, []string{"kheer", "halwa", "jamun", "barfi", "ladoo", "jalebi", "sweet"}},
	{CategoryChaat, []string{"chaat", "samosa", "tikki", "puri", "dahi"}},
	{CategoryWetSabzi, []string{"masala", "curry", "makhani", "butter", "gravy"}},
	{CategoryDrySabzi, []string{"fry", "dry", "sukhi", "roast"}},
}

var nonVegIngredients = []string{"chicken", "mutton", "fish", "prawn", "shrimp", "egg", "meat", "lamb", "beef", "pork"}

// Classifier labels dishes with one of Categories. It implements
// nutrition.DishClassifier.
type Classifier struct {
	*Service
}

func NewClassifier(base *Service) *Classifier {
	return &Classifier{Service: base}
}

// Classify tries the known-dish table, the name rules, non-veg ingredients
// and then the model. It always returns a category, "Wet Sabzi" when
// nothing else applies.
func (c *Classifier) Classify(ctx context.Context, dishName string, recipe *nutrition.Recipe) string {
	name := strings.ToLower(strings.TrimSpace(dishName))

	if category, ok := knownDishes[name]; ok {
		common.LogDebug("pre-defined classification", zap.String("dish", dishName), zap.String("dish_type", category))
		return category
	}

	if category, ok := ClassifyByName(name); ok {
		common.LogDebug("rule-based classification", zap.String("dish", dishName), zap.String("dish_type", category))
		return category
	}

	hasIngredients := recipe != nil && len(recipe.Ingredients) > 0
	if hasIngredients && IsNonVegetarian(recipe) {
		common.LogDebug("classified by non-veg ingredients", zap.String("dish", dishName))
		return CategoryNonVegCurry
	}

	if hasIngredients {
		category, err := c.classifyWithModel(ctx, dishName, ingredientsText(recipe))
		if err == nil {
			return category
		}
		c.logModelError(dishName, err)
	}

	category, err := c.classifyWithModel(ctx, dishName, "")
	if err == nil {
		return category
	}
	c.logModelError(dishName, err)
	return CategoryWetSabzi
}

// ClassifyByName applies the keyword rules to a lower-case dish name.
func ClassifyByName(name string) (string, bool) {
	for _, rule := range nameRules {
		for _, word := range rule.words {
			if strings.Contains(name, word) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// IsNonVegetarian reports whether any ingredient name mentions meat, fish
// or egg.
func IsNonVegetarian(recipe *nutrition.Recipe) bool {
	for _, ing := range recipe.Ingredients {
		name := strings.ToLower(ing.Name)
		for _, keyword := range nonVegIngredients {
			if strings.Contains(name, keyword) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) classifyWithModel(ctx context.Context, dishName, ingredients string) (string, error) {
	reply, err := c.complete(ctx, service.Completion{
		Purpose:     "classify",
		System:      classifySystemPrompt,
		Prompt:      classifyPrompt(dishName, ingredients),
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		return "", err
	}

	category := ParseCategory(reply, dishName)
	common.LogDebug("AI classification",
		zap.String("dish", dishName),
		zap.Bool("with_ingredients", ingredients != ""),
		zap.String("reply", reply),
		zap.String("dish_type", category),
	)
	return category, nil
}

func (c *Classifier) logModelError(dishName string, err error) {
	if errors.Is(err, errNoModel) || errors.Is(err, common.ErrAIDisabled) {
		common.LogDebug("model classification skipped", zap.String("dish", dishName))
		return
	}
	common.LogError("error in AI classification", zap.String("dish", dishName), zap.Error(err))
}

func classifyPrompt(dishName, ingredients string) string {
	subject := fmt.Sprintf("%q", dishName)
	if ingredients != "" {
		subject += fmt.Sprintf(" with ingredients (%s)", ingredients)
	}
	return fmt.Sprintf(`Classify the Indian dish %s
into exactly one of these categories:
%s

Pay special attention to South Indian dishes like dosas, idlis, and uttapams.
Return only the category name, nothing else.`, subject, strings.Join(Categories, ", "))
}

func ingredientsText(recipe *nutrition.Recipe) string {
	parts := make([]string, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		parts = append(parts, fmt.Sprintf("%s (%s)", ing.Name, ing.Quantity))
	}
	return common.StringSliceToString(parts)
}

// ParseCategory maps a model reply onto a category: an exact reply, then
// the first category named in the reply, then dish name hints, then
// "Wet Sabzi".
func ParseCategory(reply, dishName string) string {
	reply = strings.TrimSpace(reply)
	for _, category := range Categories {
		if reply == category {
			return category
		}
	}

	lower := strings.ToLower(reply)
	for _, category := range Categories {
		if strings.Contains(lower, strings.ToLower(category)) {
			return category
		}
	}

	name := strings.ToLower(dishName)
	for _, word := range []string{"dosa", "idli", "vada"} {
		if strings.Contains(name, word) {
			return CategorySouthIndian
		}
	}
	if strings.Contains(name, "chole") || strings.Contains(name, "bhature") {
		return CategoryChaat
	}
	return CategoryWetSabzi
}
