package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-calculator/internal/api"
	"nutrition-calculator/internal/api/handlers/health"
	"nutrition-calculator/internal/core/ai/cache"
	"nutrition-calculator/internal/core/ai/provider"
	"nutrition-calculator/internal/core/ai/queue"
	aiservice "nutrition-calculator/internal/core/ai/service"
	"nutrition-calculator/internal/core/nutrition"
	"nutrition-calculator/internal/core/recipe"
	"nutrition-calculator/internal/core/service"
	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/infrastructure/foodstore"
	"nutrition-calculator/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// logger needs the loaded config
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("starting application",
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("model_enabled", cfg.OpenRouter.Enabled),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
	)

	ctx := context.Background()

	tables, err := loadTables(cfg.Nutrition.TablesFile)
	if err != nil {
		common.LogFatal("Failed to load nutrition tables", zap.Error(err))
	}

	store, err := foodstore.Open(ctx, cfg.Store)
	if err != nil {
		common.LogFatal("Failed to open nutrition reference store", zap.Error(err))
	}
	store.Start()

	redisCache, err := cache.NewService(ctx, cfg.Redis)
	if err != nil {
		common.LogWarn("Redis unavailable, recipes will not be shared", zap.Error(err))
		redisCache, _ = cache.NewService(ctx, config.RedisConfig{})
	}

	cacheManager := cache.NewManager(cfg.Cache)

	var (
		p          provider.Provider
		modelQueue *queue.Manager
	)
	if cfg.OpenRouter.Enabled {
		p = service.NewOpenRouterService(cfg.OpenRouter)
		modelQueue = newQueue(cfg.Queue, p)
	} else {
		common.LogWarn("OPENROUTER_API_KEY not set, recipes are served from cache only")
	}
	aiService := aiservice.NewService(p, modelQueue, cacheManager)

	base := recipe.NewService(aiService, redisCache)
	calculator, err := nutrition.NewCalculator(nutrition.Deps{
		Tables:     tables,
		Recipes:    recipe.NewRecipeService(base),
		Classifier: recipe.NewClassifier(base),
		Store:      store,
		Options: nutrition.Options{
			DefaultWeightGrams:  cfg.Nutrition.DefaultWeightGrams,
			FuzzyThreshold:      cfg.Nutrition.FuzzyThreshold,
			ChainFuzzyThreshold: cfg.Nutrition.ChainFuzzyThreshold,
			QueryTimeout:        cfg.Store.QueryTimeout,
		},
	})
	if err != nil {
		common.LogFatal("Failed to create calculator", zap.Error(err))
	}

	router := api.SetupRouter(cfg, api.Services{
		Calculator: calculator,
		AI:         aiService,
		Checks: map[string]health.Checker{
			"store": store.Ping,
			"redis": redisCache.Ping,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	if modelQueue != nil {
		modelQueue.Close()
	}
	_ = cacheManager.Close()
	if err := redisCache.Close(); err != nil {
		common.LogWarn("Failed to close redis", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		common.LogWarn("Failed to close nutrition reference store", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

func loadTables(path string) (*nutrition.Tables, error) {
	if path == "" {
		return nutrition.DefaultTables()
	}
	return nutrition.LoadTables(path)
}

func newQueue(cfg config.QueueConfig, p provider.Provider) *queue.Manager {
	q := queue.NewManager(cfg, p)
	q.Start()
	return q
}
