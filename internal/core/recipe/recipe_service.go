package recipe

import (
	"context"
	"fmt"
	"strings"

	"nutrition-calculator/internal/core/ai/service"
	"nutrition-calculator/internal/core/nutrition"
	"nutrition-calculator/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	recipeSystemPrompt = "You are a helpful assistant that provides accurate Indian recipes."
	recipeTemperature  = 0.7
)

// RecipeService fetches ingredient lists from the model. It implements
// nutrition.RecipeSource.
type RecipeService struct {
	*Service
}

func NewRecipeService(base *Service) *RecipeService {
	return &RecipeService{Service: base}
}

// FetchRecipe returns the ingredient list of dishName with household
// quantities. Usable recipes are cached by dish name.
func (s *RecipeService) FetchRecipe(ctx context.Context, dishName string) (*nutrition.Recipe, error) {
	dishName = strings.TrimSpace(dishName)
	if dishName == "" {
		return nil, fmt.Errorf("dish name is required")
	}
	key := common.CacheKey("recipe", dishName)

	var cached nutrition.Recipe
	hit, err := s.getFromCache(ctx, key, &cached)
	if err != nil {
		common.LogWarn("failed to read cached recipe", zap.String("dish", dishName), zap.Error(err))
	}
	if hit && cached.Usable() {
		return &cached, nil
	}

	content, err := s.complete(ctx, service.Completion{
		Purpose:     "recipe",
		System:      recipeSystemPrompt,
		Prompt:      recipePrompt(dishName),
		Temperature: recipeTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("AI service error: %w", err)
	}

	recipe, err := parseRecipe(content, dishName)
	if err != nil {
		return nil, err
	}

	if recipe.Usable() {
		if err := s.setToCache(ctx, key, recipe); err != nil {
			common.LogWarn("failed to cache recipe", zap.String("dish", dishName), zap.Error(err))
		}
	}

	common.LogDebug("recipe fetched",
		zap.String("dish", dishName),
		zap.Int("ingredients", len(recipe.Ingredients)),
	)
	return recipe, nil
}

func recipePrompt(dishName string) string {
	return fmt.Sprintf(`Give me the recipe for %[1]s, a traditional Indian dish.
I only need the list of ingredients with approximate quantities in household measurements
(cups, tablespoons, teaspoons, etc.). Return the response as a JSON object with the following format:
{
    "dish_name": "%[1]s",
    "ingredients": [
        {"name": "ingredient name", "quantity": "quantity with unit"},
        ...
    ]
}
Only return the JSON data, no other text.`, dishName)
}

// parseRecipe pulls the JSON object out of a model reply. Replies with
// unquoted keys are repaired once.
func parseRecipe(content, dishName string) (*nutrition.Recipe, error) {
	raw, err := common.ExtractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	common.LogDebug("AI response (recipe)",
		zap.Int("ai_response_length", len(raw)),
		zap.String("ai_response_preview", preview(raw, 200)),
	)

	var generated generatedRecipe
	if err := common.ParseJSON(raw, &generated); err != nil {
		generated = generatedRecipe{}
		if err2 := common.ParseJSON(common.QuoteJSONKeys(raw), &generated); err2 != nil {
			return nil, fmt.Errorf("failed to parse AI response: %w", err)
		}
	}

	return generated.toRecipe(dishName), nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
