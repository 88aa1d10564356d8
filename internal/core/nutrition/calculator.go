package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"nutrition-calculator/internal/pkg/common"
)

// Calculator runs the whole pipeline for one dish: recipe, classification,
// standardization, aggregation, serving division and correction.
type Calculator struct {
	tables       *Tables
	recipes      RecipeSource
	classifier   DishClassifier
	store        ReferenceStore
	queryTimeout time.Duration
	standardizer *Standardizer
	aggregator   *Aggregator
	corrector    *Corrector
	servings     *ServingResolver
}

// Deps are the collaborators of a Calculator. Store may be nil.
type Deps struct {
	Tables     *Tables
	Recipes    RecipeSource
	Classifier DishClassifier
	Store      ReferenceStore
	Options    Options
}

func NewCalculator(deps Deps) (*Calculator, error) {
	if deps.Tables == nil {
		return nil, errors.New("nutrition: tables are required")
	}
	if deps.Recipes == nil || deps.Classifier == nil {
		return nil, errors.New("nutrition: recipe source and classifier are required")
	}

	opts := deps.Options.withDefaults()
	corrector := NewCorrector(deps.Tables)

	return &Calculator{
		tables:       deps.Tables,
		recipes:      deps.Recipes,
		classifier:   deps.Classifier,
		store:        deps.Store,
		queryTimeout: opts.QueryTimeout,
		standardizer: NewStandardizer(deps.Tables, opts),
		aggregator:   NewAggregator(NewMatcher(deps.Tables, deps.Store, opts), corrector),
		corrector:    corrector,
		servings:     NewServingResolver(deps.Tables),
	}, nil
}

// CalculateForDish estimates per-serving nutrition for dishName. Failures
// that leave nothing to report are returned as *DishError.
func (c *Calculator) CalculateForDish(ctx context.Context, dishName string) (result *DishNutritionResult, err error) {
	start := time.Now()
	normalized := strings.ToLower(strings.TrimSpace(dishName))

	defer func() {
		if r := recover(); r != nil {
			err = &DishError{
				Message:  fmt.Sprintf("Error processing dish: %v", r),
				DishName: dishName,
			}
		}
		if err != nil {
			common.LogWarn("dish calculation failed", zap.String("dish", dishName), zap.Error(err))
			return
		}
		common.LogInfo("dish calculated",
			zap.String("dish", dishName),
			zap.String("dish_type", result.DishType),
			zap.String("serving", result.Serving.Descriptor()),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	if profile, ok := c.tables.Profile(normalized); ok {
		return c.predefined(ctx, dishName, profile), nil
	}

	recipe, err := c.recipes.FetchRecipe(ctx, dishName)
	if err != nil {
		return nil, &DishError{Message: MsgNoRecipe, DishName: dishName, Err: common.ErrRecipeUnavailable.Wrap(err)}
	}
	if !recipe.Usable() {
		reason := errors.New("recipe has no ingredients")
		if recipe != nil && recipe.Error != "" {
			reason = errors.New(recipe.Error)
		}
		return nil, &DishError{Message: MsgNoRecipe, DishName: dishName, Err: common.ErrRecipeUnavailable.Wrap(reason)}
	}

	if p, ok := c.store.(Pinger); ok {
		pctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
		err := p.Ping(pctx)
		cancel()
		if err != nil {
			return nil, &DishError{
				Message:  "Error processing dish: nutrition reference store unavailable",
				DishName: dishName,
				Err:      common.ErrStoreUnavailable.Wrap(err),
			}
		}
	}

	dishType := c.classifier.Classify(ctx, dishName, recipe)
	common.LogDebug("dish classified", zap.String("dish", dishName), zap.String("dish_type", dishType))

	ingredients := c.standardizer.Standardize(recipe.Ingredients)
	totals, rows := c.aggregator.Aggregate(ctx, ingredients)

	serving := c.servings.Resolve(dishType)
	totalWeight := c.servings.EstimateTotalWeight(ingredients, dishType)
	ratio, err := c.servings.Ratio(serving, totalWeight)
	if err != nil {
		return nil, &DishError{
			Message:  "Error processing dish: " + err.Error(),
			DishName: dishName,
			Err:      err,
		}
	}

	perServing := c.corrector.CorrectServing(totals.Scale(ratio), dishType, normalized)

	return &DishNutritionResult{
		DishName:        dishName,
		DishType:        dishType,
		Serving:         serving,
		PerServing:      perServing.Round1(),
		IngredientsUsed: rows,
	}, nil
}

// predefined answers from a fixed profile. The recipe is still fetched,
// best effort, to list the ingredients.
func (c *Calculator) predefined(ctx context.Context, dishName string, profile DishProfile) *DishNutritionResult {
	rows := []IngredientRow{}

	recipe, err := c.recipes.FetchRecipe(ctx, dishName)
	if err != nil {
		common.LogWarn("recipe unavailable for predefined dish", zap.String("dish", dishName), zap.Error(err))
	}
	if recipe != nil && recipe.Error == "" {
		for _, ing := range recipe.Ingredients {
			label := LabelPredefined
			if IsExcludedQuantity(ing.Quantity) {
				label = LabelExcluded
			}
			rows = append(rows, IngredientRow{Ingredient: ing.Name, Quantity: ing.Quantity, MatchedTo: label})
		}
	}

	return &DishNutritionResult{
		DishName:        dishName,
		DishType:        profile.DishType,
		Serving:         profile.Serving,
		PerServing:      profile.PerServing,
		IngredientsUsed: rows,
	}
}
