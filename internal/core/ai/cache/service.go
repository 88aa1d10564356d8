package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service is the shared Redis cache. Fetched recipes live here so replicas
// and restarts reuse them.
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService connects to Redis. A disabled config yields a Service that
// misses every lookup.
func NewService(ctx context.Context, cfg config.RedisConfig) (*Service, error) {
	if !cfg.Enabled {
		return &Service{ttl: cfg.TTL}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

// Enabled reports whether a Redis client is attached.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

// GetJSON decodes the value under key into v. It returns ErrCacheMiss when
// the key is absent or the cache is disabled.
func (s *Service) GetJSON(ctx context.Context, key string, v interface{}) error {
	if !s.Enabled() {
		return ErrCacheMiss
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss("redis", key)
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := common.ParseJSONBytes(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	common.LogCacheHit("redis", key)
	return nil
}

// SetJSON stores v under key with the configured TTL.
func (s *Service) SetJSON(ctx context.Context, key string, v interface{}) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Ping checks the connection; a disabled cache is always healthy.
func (s *Service) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

func (s *Service) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}
