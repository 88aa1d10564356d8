package foodstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/pkg/common"
)

// Open builds the store selected by cfg.Driver, seeds an empty memory
// store from cfg.SeedFile and wraps the result in a CachedNames.
func Open(ctx context.Context, cfg config.StoreConfig) (*CachedNames, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		var ms *MongoStore
		ms, err = NewMongoStore(connectCtx, MongoConfig{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			Collection:     cfg.MongoCollection,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		store = ms
	case config.StoreSQLite:
		store, err = NewSQLiteStore(cfg.SQLitePath)
	case config.StoreMemory:
		store = NewMemoryStore()
		if cfg.SeedFile != "" {
			var n int
			if n, err = ImportFile(ctx, store, cfg.SeedFile); err == nil {
				common.LogInfo("memory store seeded", zap.Int("foods", n))
			}
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	cached, err := NewCachedNames(store, cfg.NamesRefresh, cfg.QueryTimeout)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	common.LogInfo("nutrition reference store opened", zap.String("driver", cfg.Driver))
	return cached, nil
}
