// Package worker reviews queued submissions and stores the verdicts.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/review"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultShutdownTimeout  = 30 * time.Second
)

// Store persists verdicts.
type Store interface {
	PutVerdict(ctx context.Context, v model.Verdict) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue() <-chan model.Submission
	Close() error
}

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker once its current submission is done.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker reads from a Queue, reviews and stores.
type InMemoryWorker struct {
	queue    Queue
	reviewer review.Reviewer
	store    Store
	name     string
	active   *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, r review.Reviewer, s Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		reviewer: r,
		store:    s,
		name:     "worker",
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. Pending submissions are drained when the
// queue is closed.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-items:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.String("submissionID", s.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, s model.Submission) error { //nolint:gocritic // hugeParam: received by value off the channel
	metrics.UpdateWorkerActive(w.active.Add(1))
	defer func() { metrics.UpdateWorkerActive(w.active.Add(-1)) }()

	start := time.Now()
	v, err := w.reviewer.Review(ctx, s)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "review_error")
		return fmt.Errorf("review %s: %w", s.ID, err)
	}
	metrics.RecordVerdict(v.Accepted, float64(time.Since(start).Microseconds())/1000)

	if err := w.store.PutVerdict(ctx, v); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store verdict %s: %w", s.ID, err)
	}

	w.logger.Debug(ctx, "submission reviewed",
		logger.String("submissionID", s.ID),
		logger.String("taskCode", s.TaskCode),
		logger.Bool("accepted", v.Accepted),
	)
	return nil
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers         []*InMemoryWorker
	queue           Queue
	size            int
	shutdownTimeout time.Duration
	active          atomic.Int64

	logger logger.Logger
}

// NewPool creates a pool. Workers are started by Start.
func NewPool(q Queue, r review.Reviewer, s Store, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:           q,
		shutdownTimeout: defaultShutdownTimeout,
		logger:          logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.size < 1 {
		p.size = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p.workers = make([]*InMemoryWorker, p.size)
	for i := range p.workers {
		w := NewInMemoryWorker(q, r, s, WithName("worker-"+strconv.Itoa(i)))
		w.active = &p.active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(p.size)
	metrics.UpdateWorkerActive(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Active returns how many workers are processing a submission right now.
func (p *Pool) Active() int64 { return p.active.Load() }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size))
}

// Shutdown closes the queue and waits for workers to drain it, bounded by
// the shutdown timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	p.logger.Info(ctx, "worker pool stopped")
	return nil
}
