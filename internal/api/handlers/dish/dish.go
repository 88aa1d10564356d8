package dish

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"nutrition-calculator/internal/core/nutrition"
	"nutrition-calculator/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MsgNoDishName is returned when a request carries no dish name.
const MsgNoDishName = "No dish name provided"

// Calculator computes per-serving nutrition for a dish.
type Calculator interface {
	CalculateForDish(ctx context.Context, dishName string) (*nutrition.DishNutritionResult, error)
}

// Handler serves the dish nutrition endpoints.
type Handler struct {
	calculator Calculator
}

func NewHandler(calculator Calculator) *Handler {
	return &Handler{calculator: calculator}
}

// HandleCalculate serves POST /api/calculate and /api/analyze-dish with a
// JSON body {"dish_name": "..."}.
func (h *Handler) HandleCalculate(c *gin.Context) {
	var req common.DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("invalid request body",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgNoDishName})
		return
	}

	h.calculate(c, req.Normalized())
}

// HandleCalculateForm serves POST /calculate with a form field dish_name.
func (h *Handler) HandleCalculateForm(c *gin.Context) {
	h.calculate(c, strings.TrimSpace(c.PostForm("dish_name")))
}

func (h *Handler) calculate(c *gin.Context, dishName string) {
	if dishName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgNoDishName})
		return
	}

	common.LogInfo("calculating dish nutrition",
		zap.String("dish", dishName),
		zap.String("request_id", requestid.Get(c)),
	)

	result, err := h.calculator.CalculateForDish(c.Request.Context(), dishName)
	if err != nil {
		h.writeError(c, dishName, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) writeError(c *gin.Context, dishName string, err error) {
	_ = c.Error(err)

	var dishErr *nutrition.DishError
	if errors.As(err, &dishErr) {
		c.JSON(common.StatusOf(err), dishErr)
		return
	}

	status := common.StatusOf(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{
		"error":     err.Error(),
		"dish_name": dishName,
	})
}
