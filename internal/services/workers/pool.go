package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// Task is a unit of work executed by the pool
type Task func(ctx context.Context) error

// Pool runs submitted tasks across a fixed set of workers and collects
// the errors they return. Wait must be called exactly once; after Wait
// the pool cannot accept new tasks.
type Pool struct {
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	errs       []error
	errsMu     sync.Mutex
	logger     arbor.ILogger
}

// NewPool creates a pool with the given worker count
func NewPool(maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		tasks:      make(chan Task, maxWorkers*2),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.Debug().
		Int("max_workers", p.maxWorkers).
		Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task for execution
func (p *Pool) Submit(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Wait closes the task queue and blocks until every worker drains
func (p *Pool) Wait() {
	close(p.tasks)
	p.wg.Wait()
}

// Shutdown cancels in-flight tasks and waits for workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// Errors returns the errors collected from failed tasks
func (p *Pool) Errors() []error {
	p.errsMu.Lock()
	defer p.errsMu.Unlock()
	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}

			if err := task(p.ctx); err != nil {
				p.errsMu.Lock()
				p.errs = append(p.errs, err)
				p.errsMu.Unlock()

				p.logger.Error().
					Err(err).
					Int("worker_id", id).
					Msg("Task failed")
			}

		case <-p.ctx.Done():
			return
		}
	}
}
