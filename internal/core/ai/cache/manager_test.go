package cache

import (
	"context"
	"testing"
	"time"

	"nutrition-calculator/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, maxSize int, ttl time.Duration) *CacheManager {
	t.Helper()
	m := NewManager(config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: ttl})
	require.NotNil(t, m)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManagerGetSet(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10, time.Hour)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k", "v"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 1, stats["size"])
	assert.InDelta(t, 0.5, stats["hit_ratio"], 1e-9)
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10, time.Millisecond)

	require.NoError(t, m.Set(ctx, "k", "v"))
	time.Sleep(5 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, m.GetStats()["size"])
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 2, time.Hour)

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestManagerOverwriteAtCapacity(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 1, time.Hour)

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "a", "2"))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestNilManager(t *testing.T) {
	ctx := context.Background()
	m := NewManager(config.CacheConfig{Enabled: false})
	assert.Nil(t, m)

	assert.NoError(t, m.Set(ctx, "k", "v"))
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, false, m.GetStats()["enabled"])
	assert.NoError(t, m.Close())
}

func TestKey(t *testing.T) {
	base := Key("m", "sys", "recipe for  dal\n tadka", 0.7)
	assert.Equal(t, base, Key("m", "sys", "recipe for dal tadka", 0.7))
	assert.NotEqual(t, base, Key("m", "sys", "recipe for dal tadka", 0.3))
	assert.NotEqual(t, base, Key("other", "sys", "recipe for dal tadka", 0.7))
	assert.NotEqual(t, base, Key("m", "", "recipe for dal tadka", 0.7))
	assert.Contains(t, base, "text:")
}

func TestDisabledRedisService(t *testing.T) {
	ctx := context.Background()
	s, err := NewService(ctx, config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, s.Enabled())
	assert.NoError(t, s.SetJSON(ctx, "recipe:dal", map[string]string{"a": "b"}))

	var v map[string]string
	assert.ErrorIs(t, s.GetJSON(ctx, "recipe:dal", &v), ErrCacheMiss)
	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}
