package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"nutrition-calculator/internal/core/ai/provider"
	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// OpenRouterService talks to an OpenAI-compatible chat completions API.
type OpenRouterService struct {
	config config.OpenRouterConfig
	client *resty.Client
}

// chatRequest is the wire body of /chat/completions.
type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float64            `json:"temperature"`
}

// apiError is the error envelope returned with non-200 responses.
type apiError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewOpenRouterService creates the client.
func NewOpenRouterService(cfg config.OpenRouterConfig) *OpenRouterService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://github.com/nutrition-calculator").
		SetHeader("X-Title", "Nutrition Calculator")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &OpenRouterService{
		config: cfg,
		client: client,
	}
}

func (s *OpenRouterService) GetModel() string {
	return s.config.Model
}

// Generate sends req and returns the first choice.
func (s *OpenRouterService) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := chatRequest{
		Model:       s.config.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = s.config.MaxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = s.config.Temperature
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")

	if err != nil {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("failed to send request to OpenRouter: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		message := resp.String()
		var apiErr apiError
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		common.LogError("OpenRouter returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", body.Model),
			zap.String("message", message),
		)
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("OpenRouter API returned %d: %s", resp.StatusCode(), message))
	}

	var result common.AIResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("failed to parse OpenRouter response: %w", err))
	}

	if len(result.Choices) == 0 {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("no choices in OpenRouter response"))
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("empty content in OpenRouter response"))
	}

	return &provider.Response{
		Content: content,
		Usage: provider.Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}, nil
}
