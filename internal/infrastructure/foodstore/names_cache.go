package foodstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"nutrition-calculator/internal/core/nutrition"
	"nutrition-calculator/internal/pkg/common"
)

// CachedNames wraps a Store and serves FoodNames from a snapshot. The
// snapshot is loaded on first use, reloaded on the cron schedule and dropped
// on every Upsert.
type CachedNames struct {
	Store

	cron    *cron.Cron
	timeout time.Duration

	mu     sync.RWMutex
	names  []string
	loaded bool
}

// NewCachedNames wraps store. schedule is a cron spec such as "@every 30m";
// an empty schedule disables periodic refresh.
func NewCachedNames(store Store, schedule string, timeout time.Duration) (*CachedNames, error) {
	if timeout <= 0 {
		timeout = nutrition.DefaultQueryTimeout
	}
	c := &CachedNames{
		Store:   store,
		cron:    cron.New(),
		timeout: timeout,
	}

	if schedule != "" {
		if _, err := c.cron.AddFunc(schedule, c.scheduledRefresh); err != nil {
			return nil, fmt.Errorf("invalid names refresh schedule %q: %w", schedule, err)
		}
	}
	return c, nil
}

// Start runs the refresh schedule in the background.
func (c *CachedNames) Start() {
	c.cron.Start()
	common.LogInfo("food name refresh scheduled", zap.Int("jobs", len(c.cron.Entries())))
}

// Stop halts the schedule and waits for a running refresh.
func (c *CachedNames) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CachedNames) FoodNames(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	names, loaded := c.names, c.loaded
	c.mu.RUnlock()
	if loaded {
		return names, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names, nil
}

// Refresh reloads the snapshot from the wrapped store.
func (c *CachedNames) Refresh(ctx context.Context) error {
	names, err := c.Store.FoodNames(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.names, c.loaded = names, true
	c.mu.Unlock()

	common.LogDebug("food names refreshed", zap.Int("count", len(names)))
	return nil
}

func (c *CachedNames) Upsert(ctx context.Context, rec nutrition.FoodRecord) error {
	if err := c.Store.Upsert(ctx, rec); err != nil {
		return err
	}
	c.mu.Lock()
	c.names, c.loaded = nil, false
	c.mu.Unlock()
	return nil
}

func (c *CachedNames) Close(ctx context.Context) error {
	c.Stop()
	return c.Store.Close(ctx)
}

func (c *CachedNames) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.Refresh(ctx); err != nil {
		common.LogWarn("failed to refresh food names", zap.Error(err))
	}
}
