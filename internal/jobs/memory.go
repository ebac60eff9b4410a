package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/projectboard/internal/metrics"
)

// MemoryQueue is an in-process queue drained by a fixed pool of workers.
type MemoryQueue struct {
	jobs    chan Job
	workers int

	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates a queue holding up to size pending jobs.
func NewMemoryQueue(size, workers int) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	if workers <= 0 {
		workers = 2
	}
	return &MemoryQueue{
		jobs:    make(chan Job, size),
		workers: workers,
	}
}

// Enqueue adds job without blocking. It returns ErrQueueFull when the buffer is full.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		metrics.JobsEnqueuedTotal.WithLabelValues(string(job.Kind)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		metrics.JobsDroppedTotal.Inc()
		log.Printf("warning: job queue full, dropped %s job for user %s", job.Kind, job.UserID)
		return ErrQueueFull
	}
}

// Run starts the workers. After Close the remaining jobs are drained before
// Run returns; on context cancellation pending jobs are abandoned.
func (q *MemoryQueue) Run(ctx context.Context, h Handler) error {
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return nil
				case job, ok := <-q.jobs:
					if !ok {
						return nil
					}
					process(gCtx, h, job)
				}
			}
		})
	}
	return g.Wait()
}

// Close stops accepting jobs. It is safe to call more than once.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}

// Pending returns the number of queued jobs.
func (q *MemoryQueue) Pending() int {
	return len(q.jobs)
}

// process runs one job, turning failures and panics into log lines.
func process(ctx context.Context, h Handler, job Job) {
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			status = "failure"
			log.Printf("job %s (%s) panicked: %v", job.ID, job.Kind, r)
		}
		metrics.JobsProcessedTotal.WithLabelValues(string(job.Kind), status).Inc()
	}()

	if err := h.HandleJob(ctx, job); err != nil {
		status = "failure"
		log.Printf("job %s (%s) failed: %v", job.ID, job.Kind, fmt.Errorf("user %s: %w", job.UserID, err))
	}
}
