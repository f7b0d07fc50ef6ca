// Package scraper defines core types shared across subsystems.
package scraper

import (
	"time"
)

// UserAgent identifies the scraper on every outbound request. The robots gate
// checks policy against this exact string, so both fetchers must send it.
const UserAgent = "NeonLeadBot/1.0 (+https://neonlead.example)"

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

// Job status values persisted in the job store. Transitions are strictly
// queued -> running -> finished; per-URL failures never change job status.
const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusRunning  JobStatus = "running"
	JobStatusFinished JobStatus = "finished"
)

// BatchParams captures one batch request: which URLs to scrape and how.
type BatchParams struct {
	URLs        []string `json:"urls"`
	Render      bool     `json:"render"`
	Concurrency int      `json:"concurrency"`
	TimeoutMs   int      `json:"timeout_ms"`
}

// Timeout converts the per-fetch budget to a duration, falling back to the
// default when the client sent nothing.
func (p BatchParams) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return 12 * time.Second
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// ContactRecord is the extraction output for one URL. Emails, phones and
// socials are deduplicated and sorted so identical input yields identical
// output.
type ContactRecord struct {
	URL     string   `json:"url"`
	Org     string   `json:"org,omitempty"`
	Title   string   `json:"title,omitempty"`
	Emails  []string `json:"emails"`
	Phones  []string `json:"phones"`
	Socials []string `json:"socials"`
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
}

// Job is the durable record tracking one asynchronous batch.
type Job struct {
	ID         string      `json:"id"`
	Status     JobStatus   `json:"status"`
	Params     BatchParams `json:"params"`
	CreatedAt  time.Time   `json:"created_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// QueueItem wraps a job ready to run on a worker.
type QueueItem struct {
	JobID  string      `json:"job_id"`
	Params BatchParams `json:"params"`
}

// JobOutcome is returned to the queue transport after a worker run.
type JobOutcome struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}
