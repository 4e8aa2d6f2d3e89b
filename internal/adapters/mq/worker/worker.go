// Package worker drains the evaluation queue into the store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/scoreboard/internal/adapters/mq/queue"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Writer persists an evaluation.
type Writer interface {
	UpsertEvaluation(ctx context.Context, e Event) error
}

// Invalidator drops cached record collections after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Queue defines how workers receive evaluations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes evaluations until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current evaluation.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker writes each dequeued evaluation and then invalidates the cache.
type InMemoryWorker struct {
	queue       Queue
	writer      Writer
	invalidator Invalidator
	name        string

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, w Writer, opts ...Option) *InMemoryWorker {
	wk := &InMemoryWorker{
		queue:    q,
		writer:   w,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(wk)
	}
	if wk.name != "worker" {
		wk.logger = wk.logger.Named(wk.name)
	}
	return wk
}

// Run starts the worker loop. It returns when ctx is done, the worker is shut
// down, or the queue channel is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "error processing evaluation", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event is passed by value off the channel
	start := time.Now()
	defer func() { metrics.RecordWorkerProcessingLatency(metrics.Since(start)) }()

	if err := w.writer.UpsertEvaluation(ctx, e); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "store write failed for evaluation",
			logger.String("evaluation_id", e.ID),
			logger.String("company", e.Company),
			logger.Error(err),
		)
		return fmt.Errorf("store evaluation %s: %w", e.ID, err)
	}
	metrics.RecordEvaluationStored()

	if w.invalidator != nil {
		if err := w.invalidator.Invalidate(ctx); err != nil {
			w.logger.Warn(ctx, "cache invalidation failed",
				logger.String("evaluation_id", e.ID),
				logger.Error(err),
			)
		}
	}
	w.logger.Debug(ctx, "evaluation stored",
		logger.String("evaluation_id", e.ID),
		logger.String("organization", e.Organization))
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	mu      sync.Mutex
	stopped bool

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// one worker per CPU.
func NewPool(workerCount int, q Queue, w Writer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, w, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

func (p *Pool) markStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.stopped = true
	return true
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop() {
	if !p.markStopped() {
		return
	}
	for _, w := range p.workers {
		w.stop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerCount(0)
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx (capped at 30s) expires are told to stop. A second call
// returns ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.markStopped() {
		return ErrStopped
	}
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
