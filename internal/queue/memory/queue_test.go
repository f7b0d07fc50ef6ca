package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neonlead/leadscraper/internal/scraper"
)

func TestEnqueueReceiveRoundTrip(t *testing.T) {
	t.Parallel()

	q := New(4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := []scraper.QueueItem{
		{JobID: "job-1", Params: scraper.BatchParams{URLs: []string{"acme.com"}}},
		{JobID: "job-2", Params: scraper.BatchParams{URLs: []string{"beta.io"}}},
	}
	for _, item := range items {
		require.NoError(t, q.Enqueue(ctx, item))
	}

	received := make([]scraper.QueueItem, 0, len(items))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Receive(ctx, func(_ context.Context, item scraper.QueueItem) error {
			received = append(received, item)
			if len(received) == len(items) {
				cancel()
			}
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("receive did not drain the queue")
	}
	require.Equal(t, items, received)
}

func TestEnqueueRespectsContext(t *testing.T) {
	t.Parallel()

	q := New(1, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, scraper.QueueItem{JobID: "fill"}))

	// Queue is full; a canceled context must unblock the producer.
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err := q.Enqueue(canceled, scraper.QueueItem{JobID: "overflow"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestReceiveLogsDroppedItemAndContinues(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	q := New(4, zap.New(core))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Enqueue(ctx, scraper.QueueItem{JobID: "job-bad"}))
	require.NoError(t, q.Enqueue(ctx, scraper.QueueItem{JobID: "job-good"}))

	var handled []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Receive(ctx, func(_ context.Context, item scraper.QueueItem) error {
			handled = append(handled, item.JobID)
			if item.JobID == "job-bad" {
				return errors.New("store unavailable")
			}
			cancel()
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("receive stopped before draining the queue")
	}

	// The failure is dropped, not fatal: the next item still gets handled.
	require.Equal(t, []string{"job-bad", "job-good"}, handled)

	entries := logs.FilterMessageSnippet("job handler failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "job-bad", entries[0].ContextMap()["job_id"])
}

func TestReceiveStopsOnClose(t *testing.T) {
	t.Parallel()

	q := New(1, zap.NewNop())
	require.NoError(t, q.Close())
	require.NoError(t, q.Close(), "double close is a no-op")

	err := q.Receive(context.Background(), func(context.Context, scraper.QueueItem) error {
		t.Fatal("no items expected")
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "queue closed")
}
