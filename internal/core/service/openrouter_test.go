package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nutrition-calculator/internal/core/ai/provider"
	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *OpenRouterService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenRouterService(config.OpenRouterConfig{
		Enabled:     true,
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		Model:       "test/model",
		MaxTokens:   500,
		Temperature: 0.3,
		Timeout:     5 * time.Second,
	})
}

func TestGenerateSendsChatRequest(t *testing.T) {
	var got chatRequest
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Dry Sabzi \n"}}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`))
	})

	req := provider.NewRequest("be brief", "classify aloo gobi")
	req.Temperature = 0.7
	resp, err := s.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Dry Sabzi", resp.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, "test/model", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, provider.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "classify aloo gobi", got.Messages[1].Content)
}

func TestGenerateUsesConfiguredTemperature(t *testing.T) {
	var got chatRequest
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := s.Generate(context.Background(), provider.NewRequest("", "hi"))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, provider.RoleUser, got.Messages[0].Role)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`, "invalid key"},
		{"plain error", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, "empty content"},
		{"bad json", http.StatusOK, `not json`, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := s.Generate(context.Background(), provider.NewRequest("", "hi"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)

			var ce *common.CustomError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, common.ErrCodeAIService, ce.Code)
		})
	}
}

func TestGetModel(t *testing.T) {
	s := NewOpenRouterService(config.OpenRouterConfig{Model: "m"})
	assert.Equal(t, "m", s.GetModel())
}
