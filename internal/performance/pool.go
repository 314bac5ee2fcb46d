// Package performance provides the concurrency helpers used to recompute
// journals and to pace calls to external services.
package performance

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolStopped is returned when submitting to a pool that is not running.
var ErrPoolStopped = errors.New("worker pool is not running")

// WorkerPool runs submitted tasks on a fixed set of goroutines.
type WorkerPool struct {
	size int
	jobs chan func()

	// mu guards running and the close of jobs against concurrent sends.
	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup

	queued    atomic.Uint64
	completed atomic.Uint64
}

// NewWorkerPool creates a pool with the given number of workers, or one per
// CPU when workers is not positive. Call Start before submitting.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{size: workers}
}

// Start launches the workers. Starting a running pool is a no-op.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.jobs = make(chan func(), p.size*64)
	p.running = true
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go func(jobs <-chan func()) {
			defer p.wg.Done()
			for job := range jobs {
				job()
				p.completed.Add(1)
			}
		}(p.jobs)
	}
}

// Submit queues a task without blocking and reports whether it was accepted.
func (p *WorkerPool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return false
	}
	select {
	case p.jobs <- task:
		p.queued.Add(1)
		return true
	default:
		return false
	}
}

// SubmitContext queues a task, waiting for queue space until ctx is done.
func (p *WorkerPool) SubmitContext(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return ErrPoolStopped
	}
	select {
	case p.jobs <- task:
		p.queued.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Workers    int    `json:"workers"`
	Running    bool   `json:"running"`
	TasksTotal uint64 `json:"tasks_total"`
	TasksDone  uint64 `json:"tasks_done"`
	QueueLen   int    `json:"queue_len"`
}

// Stats returns pool counters.
func (p *WorkerPool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PoolStats{
		Workers:    p.size,
		Running:    p.running,
		TasksTotal: p.queued.Load(),
		TasksDone:  p.completed.Load(),
		QueueLen:   len(p.jobs),
	}
}

// Map applies fn to every item on the pool and returns the results in
// input order. Items not yet queued when ctx is done are skipped and the
// context error is returned.
func Map[T, R any](ctx context.Context, pool *WorkerPool, items []T, fn func(T) R) ([]R, error) {
	out := make([]R, len(items))
	var pending sync.WaitGroup
	for i := range items {
		i := i
		pending.Add(1)
		if err := pool.SubmitContext(ctx, func() {
			defer pending.Done()
			out[i] = fn(items[i])
		}); err != nil {
			pending.Done()
			pending.Wait()
			return nil, err
		}
	}
	pending.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MemStats is a snapshot of runtime memory counters for the health endpoint.
type MemStats struct {
	Alloc      uint64 `json:"alloc_bytes"`
	Sys        uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
	HeapInuse  uint64 `json:"heap_inuse_bytes"`
	Goroutines int    `json:"goroutines"`
}

// MemoryStats reads the runtime memory counters.
func MemoryStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		Alloc:      m.Alloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		HeapInuse:  m.HeapInuse,
		Goroutines: runtime.NumGoroutine(),
	}
}
