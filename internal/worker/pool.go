// Package worker runs request-scoped tasks on a bounded pool and hands back futures for their results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	log "github.com/sirupsen/logrus"
)

var (
	ErrQueueFull  = errors.New("worker queue is full")
	ErrPoolClosed = errors.New("worker pool is closed")
	ErrTaskPanic  = errors.New("worker task panicked")
)

// Pool accepts tasks into a bounded queue and executes them with at most size concurrent goroutines.
type Pool struct {
	tasks   chan func()
	workers *pool.Pool
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewPool(size, queueCapacity int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueCapacity < 0 {
		queueCapacity = 0
	}
	p := &Pool{
		tasks:   make(chan func(), queueCapacity),
		workers: pool.New().WithMaxGoroutines(size),
		done:    make(chan struct{}),
	}
	go p.dispatch()
	log.Debugf("Worker pool started with %d workers and queue capacity %d", size, queueCapacity)
	return p
}

func (p *Pool) dispatch() {
	for task := range p.tasks {
		// blocks while all workers are busy, the queue absorbs the backlog
		p.workers.Go(task)
	}
	p.workers.Wait()
	close(p.done)
}

func (p *Pool) enqueue(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueLength returns the number of tasks waiting for a worker.
func (p *Pool) QueueLength() int {
	return len(p.tasks)
}

// Shutdown stops accepting tasks and waits for queued and running ones to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Future is the result handle of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task completes or ctx ends. Giving up on the wait does not stop the task.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit queues fn on the pool. It is a free function because methods cannot take type parameters.
// The task gets a context that keeps ctx's values but not its cancellation.
func Submit[T any](p *Pool, ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	taskCtx := context.WithoutCancel(ctx)

	err := p.enqueue(func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
				log.Error(f.err)
			}
		}()
		f.value, f.err = fn(taskCtx)
	})
	if err != nil {
		f.err = err
		close(f.done)
	}
	return f
}
