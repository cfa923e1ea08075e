// Package workpool provides the coordinator shared by the build, update and
// sync engines: a fixed-size worker pool with an unbounded queue, and a
// dynamic counting barrier that joins units which spawn further units.
//
// The queue is unbounded on purpose: a running unit submits child units, and
// a bounded queue would deadlock the fixed pool as soon as the tree's fan-out
// exceeds the worker count.
package workpool

import (
	"errors"
	"runtime"
	"sync"
)

// ErrStopped is returned by Submit after the pool stopped accepting work.
// Callers treat it like a transient connection failure, not a crash.
var ErrStopped = errors.New("workpool: stopped")

// Pool is a fixed-size worker pool. Each engine invocation owns one Pool
// instance for its whole lifetime.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
	closed  bool
	wg      sync.WaitGroup
}

// New creates a pool with the given number of workers.
// workers <= 0 means available parallelism.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit queues one unit of work. It never blocks on queue capacity, so
// units may submit children from inside the pool. After Stop or Shutdown it
// rejects cleanly with ErrStopped.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	if p.stopped || p.closed {
		p.mu.Unlock()
		return ErrStopped
	}
	p.queue = append(p.queue, task)
	p.mu.Unlock()

	p.cond.Signal()
	return nil
}

// Stop rejects further submissions and drops queued work that has not
// started. In-flight units finish; they are never interrupted mid-flight.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.queue = nil
	p.mu.Unlock()

	p.cond.Broadcast()
}

// Stopped reports whether the pool no longer accepts work.
func (p *Pool) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Shutdown drains the remaining queue and waits for all workers to exit.
// The pool cannot be reused afterwards.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task()
	}
}
