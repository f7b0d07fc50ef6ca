package scraper

import (
	"context"
	"time"
)

// Fetcher retrieves raw page markup for a normalized URL within the timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// RobotsPolicy reports whether fetching a URL is permitted for our user agent.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// JobStore persists jobs and their result rows. FinishResults must write the
// rows and the finished status atomically: readers never observe a finished
// job with a partial result set.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	MarkRunning(ctx context.Context, jobID string, params BatchParams) error
	FinishResults(ctx context.Context, jobID string, records []ContactRecord, finishedAt time.Time) error
	ListResults(ctx context.Context, jobID string) ([]ContactRecord, error)
	Close()
}

// Queue enqueues job items onto the durable transport.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Close() error
}

// Consumer delivers queued job items to a worker process.
type Consumer interface {
	Receive(ctx context.Context, handle func(ctx context.Context, item QueueItem) error) error
	Close() error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
