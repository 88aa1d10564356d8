package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"nutrition-calculator/internal/core/ai/provider"
	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("model request queue is full")
	ErrQueueClosed = errors.New("model request queue is closed")
)

// Request is a queued model call.
type Request struct {
	Context context.Context
	Request *provider.Request
	Result  chan Result
}

// Result is the outcome of a queued call.
type Result struct {
	Response *provider.Response
	Error    error
}

// Status reports queue occupancy.
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager runs model calls on a fixed number of workers so a burst of dish
// requests cannot open unbounded upstream connections.
type Manager struct {
	config    config.QueueConfig
	provider  provider.Provider
	queue     chan *Request
	done      chan struct{}
	wg        sync.WaitGroup
	processed int64
	startOnce sync.Once
	closeOnce sync.Once
}

func NewManager(cfg config.QueueConfig, p provider.Provider) *Manager {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Manager{
		config:   cfg,
		provider: p,
		queue:    make(chan *Request, cfg.MaxSize),
		done:     make(chan struct{}),
	}
}

// Start launches the workers. Calling it again is a no-op.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		for i := 0; i < m.config.Workers; i++ {
			m.wg.Add(1)
			go m.worker(i)
		}
		common.LogInfo("model queue started",
			zap.Int("workers", m.config.Workers),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
	})
}

// Submit queues req and waits for its result. A full queue fails fast with
// ErrQueueFull.
func (m *Manager) Submit(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	queueReq := &Request{
		Context: ctx,
		Request: req,
		Result:  make(chan Result, 1),
	}

	select {
	case <-m.done:
		return nil, ErrQueueClosed
	default:
	}

	select {
	case m.queue <- queueReq:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
	default:
		common.LogWarn("model queue full", zap.Int("max_queue_size", m.config.MaxSize))
		return nil, ErrQueueFull
	}

	select {
	case res := <-queueReq.Result:
		return res.Response, res.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrQueueClosed
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			m.process(id, req)
		}
	}
}

func (m *Manager) process(id int, req *Request) {
	// the caller gave up while the request was queued
	if err := req.Context.Err(); err != nil {
		req.Result <- Result{Error: err}
		return
	}

	resp, err := m.provider.Generate(req.Context, req.Request)
	atomic.AddInt64(&m.processed, 1)
	if err != nil {
		common.LogDebug("queued model call failed", zap.Int("worker", id), zap.Error(err))
	}
	req.Result <- Result{Response: resp, Error: err}
}

// GetQueueStatus returns a snapshot of the queue.
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// Close stops the workers after their current call. Waiting submitters get
// ErrQueueClosed.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}
