package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neonlead/leadscraper/internal/scraper"
)

func TestJobLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	params := scraper.BatchParams{URLs: []string{"acme.com"}, Concurrency: 2}

	job := scraper.Job{
		ID:        "job-1",
		Status:    scraper.JobStatusQueued,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateJob(ctx, job))
	require.Error(t, store.CreateJob(ctx, job), "duplicate id must be rejected")

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, scraper.JobStatusQueued, got.Status)
	require.Nil(t, got.FinishedAt)

	require.NoError(t, store.MarkRunning(ctx, "job-1", params))
	got, err = store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, scraper.JobStatusRunning, got.Status)

	records := []scraper.ContactRecord{
		{URL: "http://acme.com", Org: "Acme", OK: true},
		{URL: "http://down.example", Error: "connection refused"},
	}
	finishedAt := time.Now().UTC()
	require.NoError(t, store.FinishResults(ctx, "job-1", records, finishedAt))

	got, err = store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, scraper.JobStatusFinished, got.Status)
	require.NotNil(t, got.FinishedAt)
	require.Equal(t, finishedAt, *got.FinishedAt)

	stored, err := store.ListResults(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, records, stored)
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	store := New()
	_, err := store.GetJob(context.Background(), "missing")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestFinishResultsUnknownJob(t *testing.T) {
	t.Parallel()

	store := New()
	err := store.FinishResults(context.Background(), "missing", nil, time.Now())
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestMarkRunningCreatesMissingJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	params := scraper.BatchParams{URLs: []string{"acme.com"}}

	require.NoError(t, store.MarkRunning(ctx, "job-2", params))
	got, err := store.GetJob(ctx, "job-2")
	require.NoError(t, err)
	require.Equal(t, scraper.JobStatusRunning, got.Status)
	require.Equal(t, params, got.Params)
}

func TestListResultsEmptyJob(t *testing.T) {
	t.Parallel()

	store := New()
	records, err := store.ListResults(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, records)
}
