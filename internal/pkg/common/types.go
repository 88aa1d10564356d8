package common

import "strings"

// DishRequest is the body of POST /api/calculate and /api/analyze-dish.
type DishRequest struct {
	DishName string `json:"dish_name"`
}

// Normalized returns the trimmed dish name.
func (r DishRequest) Normalized() string {
	return strings.TrimSpace(r.DishName)
}

// HealthStatus is reported by the health endpoints.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
