package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/jobs"
	queuemem "github.com/neonlead/leadscraper/internal/queue/memory"
	"github.com/neonlead/leadscraper/internal/scraper"
	storemem "github.com/neonlead/leadscraper/internal/store/memory"
)

type pageFetcher struct{}

func (pageFetcher) Fetch(context.Context, string, time.Duration) (string, error) {
	return "<html><head><title>Acme</title></head></html>", nil
}

type openRobots struct{}

func (openRobots) Allowed(context.Context, string) bool { return true }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func TestWorkerDrainsQueue(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := storemem.New()
	queue := queuemem.New(4, zap.NewNop())
	orch := scraper.NewOrchestrator(pageFetcher{}, pageFetcher{}, openRobots{}, zap.NewNop())
	runner := jobs.NewRunner(store, orch, systemClock{}, zap.NewNop())

	params := scraper.BatchParams{URLs: []string{"acme.com"}, Concurrency: 1}
	require.NoError(t, queue.Enqueue(ctx, scraper.QueueItem{JobID: "job-1", Params: params}))
	require.NoError(t, queue.Enqueue(ctx, scraper.QueueItem{JobID: "job-2", Params: params}))

	workerDone := make(chan error, 1)
	w := New(queue, runner, zap.NewNop())
	go func() {
		workerDone <- w.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		for _, id := range []string{"job-1", "job-2"} {
			job, err := store.GetJob(ctx, id)
			if err != nil || job.Status != scraper.JobStatusFinished {
				return false
			}
		}
		return true
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-workerDone, "context cancellation is a clean stop")

	records, err := store.ListResults(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].OK)
}
