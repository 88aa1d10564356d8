package foodstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*MemoryStore
	namesCalls int
	err        error
}

func (s *countingStore) FoodNames(ctx context.Context) ([]string, error) {
	s.namesCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStore.FoodNames(ctx)
}

func TestCachedNames(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryStore: NewMemoryStore(record("Rice", 130), record("Dal", 116))}

	c, err := NewCachedNames(inner, "@every 1h", time.Second)
	require.NoError(t, err)

	names, err := c.FoodNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rice", "Dal"}, names)

	_, err = c.FoodNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.namesCalls)

	require.NoError(t, c.Upsert(ctx, record("Paneer", 265)))
	names, err = c.FoodNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rice", "Dal", "Paneer"}, names)
	assert.Equal(t, 2, inner.namesCalls)

	rec, err := c.FindExact(ctx, "paneer")
	require.NoError(t, err)
	assert.Equal(t, "Paneer", rec.Name)
}

func TestCachedNamesErrors(t *testing.T) {
	_, err := NewCachedNames(NewMemoryStore(), "not a schedule", time.Second)
	assert.Error(t, err)

	inner := &countingStore{MemoryStore: NewMemoryStore(), err: errors.New("server selection timeout")}
	c, err := NewCachedNames(inner, "", time.Second)
	require.NoError(t, err)

	_, err = c.FoodNames(context.Background())
	assert.Error(t, err)
	_, err = c.FoodNames(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, inner.namesCalls, "failed loads are not cached")
}

func TestCachedNamesStartStop(t *testing.T) {
	c, err := NewCachedNames(NewMemoryStore(), "@every 1h", time.Second)
	require.NoError(t, err)

	c.Start()
	require.NoError(t, c.Close(context.Background()))
}
