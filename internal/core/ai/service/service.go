package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"nutrition-calculator/internal/core/ai/cache"
	"nutrition-calculator/internal/core/ai/provider"
	"nutrition-calculator/internal/core/ai/queue"
	"nutrition-calculator/internal/pkg/common"

	"go.uber.org/zap"
)

// Completion is one model call.
type Completion struct {
	Purpose     string // recipe, classify; used in logs only
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Service fronts the model provider with the reply cache and the worker
// queue.
type Service struct {
	provider     provider.Provider
	queue        *queue.Manager
	cacheManager *cache.CacheManager
}

// NewService wires the AI service. p nil means the model is not configured
// and every call fails with common.ErrAIDisabled. q and cacheManager may be
// nil.
func NewService(p provider.Provider, q *queue.Manager, cacheManager *cache.CacheManager) *Service {
	return &Service{
		provider:     p,
		queue:        q,
		cacheManager: cacheManager,
	}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// Complete returns the model's reply, from cache when an identical call was
// answered before.
func (s *Service) Complete(ctx context.Context, c Completion) (content string, err error) {
	if !s.Enabled() {
		return "", common.ErrAIDisabled
	}

	prompt := strings.TrimSpace(c.Prompt)
	key := cache.Key(s.provider.GetModel(), c.System, prompt, c.Temperature)

	if val, err := s.cacheManager.Get(ctx, key); err == nil && val != "" {
		return val, nil
	}

	start := time.Now()
	defer func() {
		common.LogAICall(c.Purpose, time.Since(start), err)
	}()

	req := provider.NewRequest(c.System, prompt)
	req.Temperature = c.Temperature
	req.MaxTokens = c.MaxTokens

	var resp *provider.Response
	if s.queue != nil {
		resp, err = s.queue.Submit(ctx, req)
	} else {
		resp, err = s.provider.Generate(ctx, req)
	}
	if err != nil {
		var ce *common.CustomError
		if !errors.As(err, &ce) {
			err = common.ErrAIServiceError.Wrap(err)
		}
		return "", err
	}

	common.LogDebug("model usage",
		zap.String("purpose", c.Purpose),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	if err := s.cacheManager.Set(ctx, key, resp.Content); err != nil {
		common.LogWarn("failed to cache model reply", zap.Error(err))
	}

	return resp.Content, nil
}

// CacheStats reports the reply cache counters.
func (s *Service) CacheStats() map[string]interface{} {
	return s.cacheManager.GetStats()
}

// QueueStatus reports the worker queue, nil without a queue.
func (s *Service) QueueStatus() *queue.Status {
	if s.queue == nil {
		return nil
	}
	return s.queue.GetQueueStatus()
}
