package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Anchorer anchors one certificate. *AnchorService implements it.
type Anchorer interface {
	Anchor(ctx context.Context, id string) (*AnchorResult, error)
}

// AnchorQueue anchors certificates in the background, independent of the
// request that created them
type AnchorQueue struct {
	anchorer Anchorer
	jobs     chan string
	workers  int
	timeout  time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewAnchorQueue creates a queue holding up to size pending ids
func NewAnchorQueue(anchorer Anchorer, workers, size int, timeout time.Duration, logger *zap.Logger) *AnchorQueue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AnchorQueue{
		anchorer: anchorer,
		jobs:     make(chan string, size),
		workers:  workers,
		timeout:  timeout,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (q *AnchorQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Enqueue schedules id without blocking. It returns false when the queue is
// full or stopped.
func (q *AnchorQueue) Enqueue(id string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		anchorQueueRejectedTotal.Inc()
		return false
	}

	select {
	case q.jobs <- id:
		anchorQueueDepth.Inc()
		return true
	default:
		anchorQueueRejectedTotal.Inc()
		return false
	}
}

// Stop cancels in-flight anchoring and waits for the workers to exit.
// Pending ids are dropped; they stay unanchored and can be anchored later.
func (q *AnchorQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()

	for {
		select {
		case <-q.jobs:
			anchorQueueDepth.Dec()
		default:
			return
		}
	}
}

func (q *AnchorQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case id := <-q.jobs:
			anchorQueueDepth.Dec()
			q.run(id)
		}
	}
}

func (q *AnchorQueue) run(id string) {
	ctx := q.ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(q.ctx, q.timeout)
		defer cancel()
	}

	result, err := q.anchorer.Anchor(ctx, id)
	switch {
	case err != nil:
		if q.ctx.Err() != nil {
			q.logger.Debug("Background anchoring cancelled", zap.String("id", id))
			return
		}
		q.logger.Error("Background anchoring failed", zap.String("id", id), zap.Error(err))
	case !result.Success:
		q.logger.Warn("Background anchoring found no certificate", zap.String("id", id))
	default:
		q.logger.Debug("Background anchoring complete", zap.String("id", id), zap.String("transaction_id", result.TransactionID))
	}
}
