package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/groceryscout/backend/internal/logger"
	"golang.org/x/time/rate"
)

const dispatchTaskTimeout = 10 * time.Second

type dispatchTask struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher is a bounded background queue. Submit never blocks: when the queue is
// full or closed the task is dropped and logged, so a slow sink cannot add latency
// to the caller.
type Dispatcher struct {
	queue   chan dispatchTask
	workers int
	limiter *rate.Limiter

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher; ratePerSec <= 0 disables throttling.
func NewDispatcher(queueSize, workers int, ratePerSec float64) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = workers
	}
	return &Dispatcher{
		queue:   make(chan dispatchTask, queueSize),
		workers: workers,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Start launches the workers. Tasks run with ctx as parent.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

// Submit enqueues a task and reports whether it was accepted.
func (d *Dispatcher) Submit(name string, run func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		logger.Warn("Dispatcher: closed, dropping task %s", name)
		return false
	}

	select {
	case d.queue <- dispatchTask{name: name, run: run}:
		return true
	default:
		logger.Warn("Dispatcher: queue full, dropping task %s", name)
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()

	for task := range d.queue {
		if err := d.limiter.Wait(ctx); err != nil {
			// Context is gone; still drain so Close returns.
			logger.Warn("Dispatcher: dropping task %s: %v", task.name, err)
			continue
		}
		d.run(ctx, task)
	}
}

func (d *Dispatcher) run(parent context.Context, task dispatchTask) {
	ctx, cancel := context.WithTimeout(parent, dispatchTaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Dispatcher: task %s panicked: %v", task.name, r)
		}
	}()

	if err := task.run(ctx); err != nil {
		logger.Error("Dispatcher: task %s failed: %v", task.name, fmt.Errorf("degraded dependency: %w", err))
	}
}
