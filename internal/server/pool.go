// FilePath: internal/server/pool.go
package server

import (
	"context"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/executor"
	"github.com/skyfield/archivehub/internal/monitoring"
)

// Pool hands out workers round-robin. The core workers live forever; extra
// workers up to the maximum are created under load and discarded again once
// they sit idle past the keep-alive. Acquire scans from just past the last
// worker handed out, so load spreads instead of hammering worker zero.
type Pool struct {
	mu        sync.Mutex
	workers   []*Worker
	exec      *executor.Executor
	metrics   *monitoring.Service
	core      int
	max       int
	keepAlive time.Duration
	poll      time.Duration
	cursor    int
}

// NewPool creates a pool with core pre-started workers.
func NewPool(exec *executor.Executor, metrics *monitoring.Service, core, max int, keepAlive, poll time.Duration) *Pool {
	p := &Pool{
		exec:      exec,
		metrics:   metrics,
		core:      core,
		max:       max,
		keepAlive: keepAlive,
		poll:      poll,
	}
	for i := 0; i < core; i++ {
		w := newWorker(exec, metrics)
		w.available = true
		p.workers = append(p.workers, w)
	}
	nuts.L.Infof("[Pool] started with %d core workers (max %d, keep-alive %s)", core, max, keepAlive)
	return p
}

// Acquire returns an available worker, growing the pool up to its maximum
// if every worker is busy, and otherwise polling until one frees up or the
// context ends.
func (p *Pool) Acquire(ctx context.Context) (*Worker, error) {
	for {
		if w := p.tryAcquire(); w != nil {
			return w, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.poll):
		}
	}
}

func (p *Pool) tryAcquire() *Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.workers)
	for i := 1; i <= n; i++ {
		idx := (p.cursor + i) % n
		if w := p.workers[idx]; w.available {
			w.available = false
			w.lastUsed = time.Now()
			p.cursor = idx
			return w
		}
	}
	if n < p.max {
		w := newWorker(p.exec, p.metrics)
		p.workers = append(p.workers, w)
		p.cursor = len(p.workers) - 1
		nuts.L.Debugf("[Pool] grew to %d workers", len(p.workers))
		return w
	}
	return nil
}

// Release marks a worker available again and trims surplus workers that
// have idled past the keep-alive.
func (p *Pool) Release(w *Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.available = true
	w.lastUsed = time.Now()

	if len(p.workers) <= p.core {
		return
	}
	cutoff := time.Now().Add(-p.keepAlive)
	kept := make([]*Worker, 0, len(p.workers))
	retired := 0
	for _, cand := range p.workers {
		surplus := len(p.workers)-retired > p.core
		if surplus && cand != w && cand.available && cand.lastUsed.Before(cutoff) {
			retired++
			nuts.L.Debugf("[Pool] retiring idle worker %s", cand.id)
			continue
		}
		kept = append(kept, cand)
	}
	// Rebuild keeps order, so reset the cursor into range.
	p.workers = kept
	if p.cursor >= len(p.workers) {
		p.cursor = 0
	}
}

// Size reports the current worker count.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}
