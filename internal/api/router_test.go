package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"nutrition-calculator/internal/api/handlers/health"
	"nutrition-calculator/internal/core/nutrition"
	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCalculator struct {
	mu     sync.Mutex
	dishes []string
	err    error
}

func (s *stubCalculator) CalculateForDish(ctx context.Context, dishName string) (*nutrition.DishNutritionResult, error) {
	s.mu.Lock()
	s.dishes = append(s.dishes, dishName)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return &nutrition.DishNutritionResult{
		DishName:   dishName,
		DishType:   "Dal",
		Serving:    nutrition.ServingSize{Quantity: "200ml", Unit: "_katori"},
		PerServing: nutrition.NutrientVector{Calories: 180, Protein: 9, Carbs: 22, Fat: 5, Fiber: 4},
		IngredientsUsed: []nutrition.IngredientRow{
			{Ingredient: "toor dal", Quantity: "1 cup", MatchedTo: "Toor dal"},
		},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Version: "test"},
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1024},
		DedupWindow: time.Millisecond,
	}
}

func newTestRouter(cfg *config.Config, svc Services) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(cfg, svc)
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCalculateEndpoints(t *testing.T) {
	calc := &stubCalculator{}
	router := newTestRouter(testConfig(), Services{Calculator: calc})

	for _, path := range []string{"/api/calculate", "/api/analyze-dish"} {
		t.Run(path, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, path, `{"dish_name": "  Dal Tadka "}`)

			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{
				"dish_name": "Dal Tadka",
				"dish_type": "Dal",
				"estimated_nutrition_per_200ml_katori": {"calories": 180, "protein": 9, "carbs": 22, "fat": 5, "fiber": 4},
				"ingredients_used": [{"ingredient": "toor dal", "quantity": "1 cup", "matched_to": "Toor dal"}]
			}`, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
	assert.Equal(t, []string{"Dal Tadka", "Dal Tadka"}, calc.dishes)
}

func TestCalculateForm(t *testing.T) {
	router := newTestRouter(testConfig(), Services{Calculator: &stubCalculator{}})

	form := url.Values{"dish_name": {"Poha"}}
	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dish_name":"Poha"`)
}

func TestCalculateMissingDishName(t *testing.T) {
	calc := &stubCalculator{}
	router := newTestRouter(testConfig(), Services{Calculator: calc})

	for _, body := range []string{``, `{}`, `{"dish_name": "   "}`, `not json`} {
		w := doJSON(router, http.MethodPost, "/api/calculate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error": "No dish name provided"}`, w.Body.String(), body)
	}
	assert.Empty(t, calc.dishes)
}

func TestCalculateDishErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name: "no recipe",
			err: &nutrition.DishError{
				Message:  nutrition.MsgNoRecipe,
				DishName: "Mystery",
				Err:      common.ErrRecipeUnavailable.Wrap(errors.New("timeout")),
			},
			status: http.StatusBadGateway,
			body:   `{"error": "Could not fetch recipe or no ingredients found", "dish_name": "Mystery"}`,
		},
		{
			name: "store down",
			err: &nutrition.DishError{
				Message:  "Error processing dish: nutrition reference store unavailable",
				DishName: "Mystery",
				Err:      common.ErrStoreUnavailable.Wrap(errors.New("no reachable servers")),
			},
			status: http.StatusServiceUnavailable,
			body:   `{"error": "Error processing dish: nutrition reference store unavailable", "dish_name": "Mystery"}`,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			body:   `{"error": "boom", "dish_name": "Mystery"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(testConfig(), Services{Calculator: &stubCalculator{err: tt.err}})
			w := doJSON(router, http.MethodPost, "/api/calculate", `{"dish_name": "Mystery"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestNoRoute(t *testing.T) {
	router := newTestRouter(testConfig(), Services{Calculator: &stubCalculator{}})
	w := doJSON(router, http.MethodGet, "/api/unknown", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "`+MsgNotFound+`"}`, w.Body.String())
}

func TestDuplicateRequestsRejected(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	router := newTestRouter(cfg, Services{Calculator: &stubCalculator{}})

	body := `{"dish_name": "Upma"}`
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/calculate", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(router, http.MethodPost, "/api/calculate", body).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/calculate", `{"dish_name": "Poha"}`).Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Hour}
	router := newTestRouter(cfg, Services{Calculator: &stubCalculator{}})

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/calculate", `{"dish_name": "a"}`).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/calculate", `{"dish_name": "b"}`).Code)

	w := doJSON(router, http.MethodPost, "/api/calculate", `{"dish_name": "c"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// health endpoints are not limited
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/live", "").Code)
}

func TestBodySizeLimit(t *testing.T) {
	router := newTestRouter(testConfig(), Services{Calculator: &stubCalculator{}})
	body := `{"dish_name": "` + strings.Repeat("x", 2048) + `"}`

	w := doJSON(router, http.MethodPost, "/api/calculate", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	checks := map[string]health.Checker{
		"store": func(context.Context) error { return nil },
	}
	router := newTestRouter(testConfig(), Services{Calculator: &stubCalculator{}, Checks: checks})

	w := doJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)

	w = doJSON(router, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"ok"`)

	checks["redis"] = func(context.Context) error { return errors.New("connection refused") }
	w = doJSON(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"not ready"`)
	assert.Contains(t, w.Body.String(), `"redis":"connection refused"`)
}
