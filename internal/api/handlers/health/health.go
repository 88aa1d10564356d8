package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"nutrition-calculator/internal/core/ai/queue"
	"nutrition-calculator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// AIStats exposes the model cache and queue counters.
type AIStats interface {
	CacheStats() map[string]interface{}
	QueueStatus() *queue.Status
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// Handler serves the health endpoints.
type Handler struct {
	version      string
	ai           AIStats
	checks       map[string]Checker
	checkTimeout time.Duration
}

// NewHandler creates the handler. ai may be nil; checks are run by the
// readiness probe.
func NewHandler(version string, ai AIStats, checks map[string]Checker) *Handler {
	return &Handler{
		version:      version,
		ai:           ai,
		checks:       checks,
		checkTimeout: 3 * time.Second,
	}
}

// HealthCheck reports version, runtime and AI counters.
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.ai != nil {
		response.Cache = h.ai.CacheStats()
		response.Queue = h.ai.QueueStatus()
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck pings every dependency; any failure answers 503.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	status := common.HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.checks)),
	}
	code := http.StatusOK

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			common.LogWarn("readiness check failed", zap.String("check", name), zap.Error(err))
			status.Checks[name] = err.Error()
			status.Status = "not ready"
			code = http.StatusServiceUnavailable
			continue
		}
		status.Checks[name] = "ok"
	}

	c.JSON(code, status)
}

// LivenessCheck answers as long as the process serves requests.
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
