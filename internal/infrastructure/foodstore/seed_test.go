package foodstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrition-calculator/internal/core/nutrition"
	"nutrition-calculator/internal/infrastructure/config"
)

const seedJSON = `[
  {"food_name": "Rice, white, cooked", "energy_kcal": 130, "protein_g": 2.7, "carb_g": 28, "fat_g": 0.3, "fibre_g": null},
  {"food_name": "  "},
  {"food_name": "Paneer", "energy_kcal": 265, "protein_g": 18.3, "carb_g": 1.2, "fat_g": 20.8, "fibre_g": 0}
]`

func TestImport(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	n, err := Import(ctx, store, strings.NewReader(seedJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := store.FindExact(ctx, "rice, white, cooked")
	require.NoError(t, err)
	assert.Equal(t, nutrition.NutrientVector{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}, rec.Per100g)

	_, err = Import(ctx, store, strings.NewReader(`{"food_name": "not an array"}`))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seed := filepath.Join(dir, "foods.json")
	require.NoError(t, os.WriteFile(seed, []byte(seedJSON), 0o644))

	t.Run("memory with seed", func(t *testing.T) {
		store, err := Open(ctx, config.StoreConfig{Driver: config.StoreMemory, SeedFile: seed, QueryTimeout: time.Second})
		require.NoError(t, err)
		defer store.Close(ctx)

		rec, err := store.FindExact(ctx, "paneer")
		require.NoError(t, err)
		assert.Equal(t, 265.0, rec.Per100g.Calories)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := Open(ctx, config.StoreConfig{
			Driver:       config.StoreSQLite,
			SQLitePath:   filepath.Join(dir, "data", "nutrition.db"),
			QueryTimeout: time.Second,
			NamesRefresh: "@every 30m",
		})
		require.NoError(t, err)
		defer store.Close(ctx)

		n, err := ImportFile(ctx, store, seed)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		names, err := store.FoodNames(ctx)
		require.NoError(t, err)
		assert.Len(t, names, 2)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, config.StoreConfig{Driver: "postgres"})
		assert.Error(t, err)
	})
}
