package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nutrition-calculator/internal/core/ai/provider"
	"nutrition-calculator/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProvider struct {
	calls   int32
	active  int32
	peak    int32
	delay   time.Duration
	failing bool
}

func (p *echoProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	atomic.AddInt32(&p.calls, 1)
	n := atomic.AddInt32(&p.active, 1)
	defer atomic.AddInt32(&p.active, -1)
	for {
		peak := atomic.LoadInt32(&p.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&p.peak, peak, n) {
			break
		}
	}

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.failing {
		return nil, errors.New("upstream failed")
	}
	last := req.Messages[len(req.Messages)-1]
	return &provider.Response{Content: "echo: " + last.Content}, nil
}

func (p *echoProvider) GetModel() string { return "echo" }

func TestSubmit(t *testing.T) {
	p := &echoProvider{}
	m := NewManager(config.QueueConfig{MaxSize: 4, Workers: 2}, p)
	m.Start()
	defer m.Close()

	resp, err := m.Submit(context.Background(), provider.NewRequest("", "jeera rice"))
	require.NoError(t, err)
	assert.Equal(t, "echo: jeera rice", resp.Content)
	assert.Equal(t, int64(1), m.GetQueueStatus().ProcessedCount)
}

func TestSubmitPropagatesProviderError(t *testing.T) {
	m := NewManager(config.QueueConfig{MaxSize: 1, Workers: 1}, &echoProvider{failing: true})
	m.Start()
	defer m.Close()

	_, err := m.Submit(context.Background(), provider.NewRequest("", "x"))
	assert.EqualError(t, err, "upstream failed")
}

func TestWorkersBoundConcurrency(t *testing.T) {
	p := &echoProvider{delay: 20 * time.Millisecond}
	m := NewManager(config.QueueConfig{MaxSize: 10, Workers: 2}, p)
	m.Start()
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Submit(context.Background(), provider.NewRequest("", "x"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(6), atomic.LoadInt32(&p.calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&p.peak), int32(2))
}

func TestSubmitQueueFull(t *testing.T) {
	// no workers started, so the first request stays queued
	m := NewManager(config.QueueConfig{MaxSize: 1, Workers: 1}, &echoProvider{})
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := m.Submit(ctx, provider.NewRequest("", "a"))
		first <- err
	}()

	require.Eventually(t, func() bool {
		return m.GetQueueStatus().QueueLength == 1
	}, time.Second, time.Millisecond)

	_, err := m.Submit(context.Background(), provider.NewRequest("", "b"))
	assert.ErrorIs(t, err, ErrQueueFull)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
}

func TestSubmitAfterClose(t *testing.T) {
	m := NewManager(config.QueueConfig{MaxSize: 1, Workers: 1}, &echoProvider{})
	m.Start()
	m.Close()
	m.Close()

	_, err := m.Submit(context.Background(), provider.NewRequest("", "a"))
	assert.ErrorIs(t, err, ErrQueueClosed)
}
