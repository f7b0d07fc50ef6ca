// Package memory provides an in-process queue for local development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/scraper"
)

// Queue is a bounded in-memory queue implementing both scraper.Queue and
// scraper.Consumer. It stands in for the durable transport when the service
// runs with an in-process worker.
type Queue struct {
	ch      chan scraper.QueueItem
	logger  *zap.Logger
	closeMu sync.Mutex
	closed  bool
}

// New constructs a queue with the provided capacity.
func New(capacity int, logger *zap.Logger) *Queue {
	return &Queue{
		ch:     make(chan scraper.QueueItem, capacity),
		logger: logger,
	}
}

// Enqueue pushes a job item or returns when the context ends.
func (q *Queue) Enqueue(ctx context.Context, item scraper.QueueItem) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- item:
		return nil
	}
}

// Receive delivers items to the handler until the context finishes or the
// queue is closed. Unlike the durable transport there is no redelivery: a
// handler failure drops the item, so it is logged loudly instead.
func (q *Queue) Receive(ctx context.Context, handle func(ctx context.Context, item scraper.QueueItem) error) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("receive canceled: %w", ctx.Err())
		case item, ok := <-q.ch:
			if !ok {
				return errors.New("queue closed")
			}
			if err := handle(ctx, item); err != nil {
				q.logger.Error("job handler failed; dropping item (no redelivery in memory mode)",
					zap.String("job_id", item.JobID), zap.Error(err))
			}
		}
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() error {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return nil
	}
	close(q.ch)
	q.closed = true
	return nil
}
