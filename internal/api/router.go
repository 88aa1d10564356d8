package api

import (
	"context"
	"net/http"
	"time"

	"nutrition-calculator/internal/api/handlers/dish"
	"nutrition-calculator/internal/api/handlers/health"
	"nutrition-calculator/internal/api/middleware"
	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MsgNotFound lists the endpoints when a route does not exist.
const MsgNotFound = "Endpoint not found. Available endpoints: /api/calculate, /api/analyze-dish"

// Services are the handlers' collaborators.
type Services struct {
	Calculator dish.Calculator
	AI         health.AIStats // may be nil
	Checks     map[string]health.Checker
}

// SetupRouter builds the gin engine.
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}

	if cfg.Server.RequestTimeout > 0 {
		router.Use(requestTimeout(cfg.Server.RequestTimeout))
	}

	healthHandler := health.NewHandler(cfg.App.Version, svc.AI, svc.Checks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	dishHandler := dish.NewHandler(svc.Calculator)

	// limits apply to the calculation endpoints only
	limited := []gin.HandlerFunc{}
	if cfg.RateLimit.Enabled {
		limited = append(limited, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	limited = append(limited, middleware.Deduplication(cfg.DedupWindow))

	router.POST("/calculate", append(limited, dishHandler.HandleCalculateForm)...)

	apiGroup := router.Group("/api", limited...)
	{
		apiGroup.POST("/calculate", dishHandler.HandleCalculate)
		apiGroup.POST("/analyze-dish", dishHandler.HandleCalculate)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgNotFound})
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

// requestTimeout bounds every request's context.
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeGatewayTimeout,
			})
		}
	}
}
