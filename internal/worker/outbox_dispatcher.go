package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/events"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OutboxDispatcher publishes unsent outbox events with a pool of workers.
// Every poll wakes each worker once; a worker keeps claiming batches until
// one comes back short.
type OutboxDispatcher struct {
	outbox       repository.OutboxRepository
	publisher    events.Publisher
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
	sent   atomic.Int64
}

// NewOutboxDispatcher constructs the dispatcher worker pool.
func NewOutboxDispatcher(outbox repository.OutboxRepository, publisher events.Publisher, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *OutboxDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &OutboxDispatcher{
		outbox:       outbox,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
	}
}

// Start launches background processing. It is a no-op when already running.
func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.jobs = make(chan struct{}, d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx, d.jobs)
	}

	d.wg.Add(1)
	go d.dispatch(runCtx, d.jobs)
}

// Stop cancels processing and waits for all workers to finish.
func (d *OutboxDispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// Sent returns the number of events published since construction.
func (d *OutboxDispatcher) Sent() int64 {
	return d.sent.Load()
}

func (d *OutboxDispatcher) dispatch(ctx context.Context, jobs chan<- struct{}) {
	defer d.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for i := 0; i < d.workers; i++ {
				select {
				case <-ctx.Done():
					return
				case jobs <- struct{}{}:
				}
			}
		}
	}
}

func (d *OutboxDispatcher) worker(ctx context.Context, jobs <-chan struct{}) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-jobs:
			if !ok {
				return
			}
			d.drain(ctx)
		}
	}
}

func (d *OutboxDispatcher) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := d.outbox.Dispatch(ctx, d.batchSize, d.publisher.Publish)
		if err != nil {
			if ctx.Err() == nil {
				d.logger.Error("outbox dispatch failed", slog.String("error", err.Error()))
			}
			return
		}
		if n > 0 {
			d.sent.Add(int64(n))
			d.logger.Debug("outbox events published", slog.Int("count", n))
		}
		if n < d.batchSize {
			return
		}
	}
}
