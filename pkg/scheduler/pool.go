package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Pool runs submitted jobs on a fixed number of goroutines
type Pool struct {
	logger   *slog.Logger
	jobs     chan func()
	quit     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewPool(logger *slog.Logger, workers uint, queueSize uint) *Pool {
	pool := &Pool{
		logger: logger,
		jobs:   make(chan func(), queueSize),
		quit:   make(chan struct{}),
	}
	pool.wg.Add(int(workers))
	for i := uint(0); i < workers; i++ {
		go func() {
			defer pool.wg.Done()
			for {
				select {
				case <-pool.quit:
					return
				case job := <-pool.jobs:
					job()
				}
			}
		}()
	}
	return pool
}

// Submit queues the job, waiting for room in the queue. It returns false
// if the context is cancelled or the pool stopped before the job was queued.
func (p *Pool) Submit(ctx context.Context, job func()) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	select {
	case p.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	case <-p.quit:
		return false
	}
}

// Stop waits for running jobs to complete. Queued jobs are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
		if dropped := len(p.jobs); dropped > 0 {
			p.logger.Warn(fmt.Sprintf("%d queued checks dropped on shutdown", dropped))
		}
	})
}
