// Package worker consumes queue items and drives the job runner.
package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/jobs"
	"github.com/neonlead/leadscraper/internal/scraper"
)

// Worker pulls job items from the queue transport and runs each batch. One
// worker processes one job at a time; job-level parallelism comes from
// running more worker processes.
type Worker struct {
	consumer scraper.Consumer
	runner   *jobs.Runner
	logger   *zap.Logger
}

// New constructs a Worker.
func New(consumer scraper.Consumer, runner *jobs.Runner, logger *zap.Logger) *Worker {
	return &Worker{
		consumer: consumer,
		runner:   runner,
		logger:   logger,
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) error {
	err := w.consumer.Receive(ctx, func(jobCtx context.Context, item scraper.QueueItem) error {
		w.logger.Debug("dequeued job", zap.String("job_id", item.JobID))
		outcome, err := w.runner.RunJob(jobCtx, item.JobID, item.Params)
		if err != nil {
			w.logger.Error("job run failed", zap.String("job_id", item.JobID), zap.Error(err))
			return err
		}
		w.logger.Debug("job outcome", zap.String("job_id", item.JobID), zap.Int("count", outcome.Count))
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker receive: %w", err)
	}
	return nil
}
