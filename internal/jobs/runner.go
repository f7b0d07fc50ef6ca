// Package jobs implements the job lifecycle state machine around the
// orchestrator.
package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/metrics"
	"github.com/neonlead/leadscraper/internal/scraper"
)

// Runner owns job status transitions: queued -> running -> finished, never
// backwards and never skipping a state. Per-URL failures live inside result
// rows and cannot keep a job from finishing; only a store failure is fatal to
// the run (re-submission is the retry path).
type Runner struct {
	store  scraper.JobStore
	orch   *scraper.Orchestrator
	clock  scraper.Clock
	logger *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(store scraper.JobStore, orch *scraper.Orchestrator, clock scraper.Clock, logger *zap.Logger) *Runner {
	return &Runner{
		store:  store,
		orch:   orch,
		clock:  clock,
		logger: logger,
	}
}

// RunJob executes one queued batch to completion.
func (r *Runner) RunJob(ctx context.Context, jobID string, params scraper.BatchParams) (scraper.JobOutcome, error) {
	if err := r.store.MarkRunning(ctx, jobID, params); err != nil {
		return scraper.JobOutcome{}, fmt.Errorf("mark job running: %w", err)
	}
	r.logger.Info("job running", zap.String("job_id", jobID), zap.Int("urls", len(params.URLs)))
	metrics.ObserveJob(string(scraper.JobStatusRunning))

	metrics.IncActiveBatches()
	records := r.orch.RunBatch(ctx, params)
	metrics.DecActiveBatches()

	if err := r.store.FinishResults(ctx, jobID, records, r.clock.Now()); err != nil {
		return scraper.JobOutcome{}, fmt.Errorf("finish job: %w", err)
	}
	r.logger.Info("job finished", zap.String("job_id", jobID), zap.Int("count", len(records)))
	metrics.ObserveJob(string(scraper.JobStatusFinished))

	return scraper.JobOutcome{OK: true, Count: len(records)}, nil
}
