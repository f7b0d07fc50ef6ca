package scraper

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/metrics"
)

const (
	maxConcurrency = 10
	maxErrorLen    = 300

	errBlockedByRobots = "blocked_by_robots"
)

// Orchestrator runs extraction over a batch of URLs under a bounded
// concurrency limit. One bad target never aborts the batch: every failure is
// converted into a failed ContactRecord.
type Orchestrator struct {
	static   Fetcher
	rendered Fetcher
	robots   RobotsPolicy
	logger   *zap.Logger
}

// NewOrchestrator wires the two fetch strategies and the robots gate.
func NewOrchestrator(static, rendered Fetcher, robots RobotsPolicy, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		static:   static,
		rendered: rendered,
		robots:   robots,
		logger:   logger,
	}
}

// RunBatch scrapes every URL in params and returns exactly one record per
// input, indexed to match the input slice. Concurrency is clamped to
// [1, maxConcurrency] via a channel admission gate.
func (o *Orchestrator) RunBatch(ctx context.Context, params BatchParams) []ContactRecord {
	records := make([]ContactRecord, len(params.URLs))
	gate := make(chan struct{}, clampConcurrency(params.Concurrency))

	var wg sync.WaitGroup
	for i, raw := range params.URLs {
		wg.Add(1)
		go func(slot int, rawURL string) {
			defer wg.Done()
			gate <- struct{}{}
			defer func() { <-gate }()
			records[slot] = o.scrapeOne(ctx, rawURL, params)
		}(i, raw)
	}
	wg.Wait()
	return records
}

func (o *Orchestrator) scrapeOne(ctx context.Context, rawURL string, params BatchParams) ContactRecord {
	url := NormalizeURL(rawURL)

	if !o.robots.Allowed(ctx, url) {
		o.logger.Info("fetch blocked by robots", zap.String("url", url))
		metrics.ObserveScrape(url, "robots_blocked")
		return ContactRecord{URL: url, Error: errBlockedByRobots}
	}

	fetcher := o.static
	if params.Render {
		fetcher = o.rendered
	}
	markup, err := fetcher.Fetch(ctx, url, params.Timeout())
	if err != nil {
		o.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		metrics.ObserveScrape(url, "fetch_failed")
		return ContactRecord{URL: url, Error: truncate(err.Error(), maxErrorLen)}
	}

	record := ExtractContacts(markup, url)
	record.OK = true
	metrics.ObserveScrape(url, "ok")
	return record
}

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxConcurrency {
		return maxConcurrency
	}
	return n
}
