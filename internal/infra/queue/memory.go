package queue

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MemoryQueue is a bounded in-process queue served by a fixed worker pool.
type MemoryQueue struct {
	jobs    chan Job
	workers int
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewMemoryQueue(buffer, workers int, log *zap.Logger) *MemoryQueue {
	if buffer <= 0 {
		buffer = 64
	}
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryQueue{jobs: make(chan Job, buffer), workers: workers, log: log}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Run(ctx context.Context, h Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		worker := i
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case job, ok := <-q.jobs:
					if !ok {
						return nil
					}
					q.process(ctx, worker, job, h)
				}
			}
		})
	}
	return g.Wait()
}

func (q *MemoryQueue) process(ctx context.Context, worker int, job Job, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("analysis job panicked",
				zap.Int("worker", worker),
				zap.String("job_id", job.ID),
				zap.String("artwork_id", job.ArtworkID),
				zap.Error(fmt.Errorf("panic: %v", r)))
		}
	}()
	if err := h(ctx, job); err != nil {
		q.log.Error("analysis job failed",
			zap.Int("worker", worker),
			zap.String("job_id", job.ID),
			zap.String("artwork_id", job.ArtworkID),
			zap.Error(err))
	}
}

// Close stops accepting jobs. Workers finish what is already buffered.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}

// Len is the number of buffered jobs not yet picked up.
func (q *MemoryQueue) Len() int { return len(q.jobs) }

var _ Queue = (*MemoryQueue)(nil)
