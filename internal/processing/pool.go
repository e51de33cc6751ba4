// Package processing fans turns out to a fixed set of workers. Jobs with the
// same key always land on the same worker, so turns of one conversation are
// handled in arrival order.
package processing

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("processing: pool closed")

// Job is one unit of work.
type Job func(ctx context.Context)

// Pool is a keyed worker pool.
type Pool struct {
	queues []chan Job
	wg     sync.WaitGroup

	// senders counts Submit calls past the closed check; queues are closed
	// only once it drains.
	senders sync.WaitGroup
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines, each with a queue of depth jobs. Workers
// run jobs with ctx.
func NewPool(ctx context.Context, workers, depth int) *Pool {
	workers = CalcWorkerCount(workers)
	if depth < 0 {
		depth = 0
	}
	p := &Pool{queues: make([]chan Job, workers), done: make(chan struct{})}
	for i := range p.queues {
		q := make(chan Job, depth)
		p.queues[i] = q
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range q {
				job(ctx)
			}
		}()
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return len(p.queues)
}

// Submit enqueues job on the worker owning key. It blocks while that worker's
// queue is full, until ctx is done or the pool is closed.
func (p *Pool) Submit(ctx context.Context, key string, job Job) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	p.senders.Add(1)
	p.mu.RUnlock()
	defer p.senders.Done()

	select {
	case p.queues[p.slot(key)] <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrClosed
	}
}

// Close stops accepting jobs, releases blocked submitters with ErrClosed and
// waits for queued jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	first := !p.closed
	if first {
		p.closed = true
		close(p.done)
	}
	p.mu.Unlock()

	if first {
		p.senders.Wait()
		for _, q := range p.queues {
			close(q)
		}
	}
	p.wg.Wait()
}

func (p *Pool) slot(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.queues)))
}

// CalcWorkerCount clamps a requested worker count to [1, 16].
func CalcWorkerCount(n int) int {
	if n <= 0 {
		return 1
	}
	if n > 16 {
		return 16
	}
	return n
}
