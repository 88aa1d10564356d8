package recipe

import (
	"context"
	"errors"

	"nutrition-calculator/internal/core/ai/cache"
	"nutrition-calculator/internal/core/ai/service"
)

// Completer runs one model call. *service.Service implements it.
type Completer interface {
	Complete(ctx context.Context, c service.Completion) (string, error)
}

// JSONCache is a shared cache of JSON values. *cache.Service implements it.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, v interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}) error
}

// Service holds what the recipe fetcher and the classifier share.
type Service struct {
	ai    Completer
	cache JSONCache
}

// NewService creates the shared base. ai and c may be nil.
func NewService(ai Completer, c JSONCache) *Service {
	return &Service{
		ai:    ai,
		cache: c,
	}
}

// getFromCache decodes key into v; false on a miss or a disabled cache.
func (s *Service) getFromCache(ctx context.Context, key string, v interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	err := s.cache.GetJSON(ctx, key, v)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) setToCache(ctx context.Context, key string, v interface{}) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.SetJSON(ctx, key, v)
}

func (s *Service) complete(ctx context.Context, c service.Completion) (string, error) {
	if s.ai == nil {
		return "", errNoModel
	}
	return s.ai.Complete(ctx, c)
}
