// Package memory provides an in-memory job store for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/neonlead/leadscraper/internal/scraper"
)

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// Store implements scraper.JobStore backed by maps.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]scraper.Job
	results map[string][]scraper.ContactRecord
}

// New constructs a Store.
func New() *Store {
	return &Store{
		jobs:    make(map[string]scraper.Job),
		results: make(map[string][]scraper.ContactRecord),
	}
}

// CreateJob stores a new job in queued status.
func (s *Store) CreateJob(_ context.Context, job scraper.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return errors.New("job already exists")
	}
	s.jobs[job.ID] = job
	return nil
}

// GetJob loads one job by id.
func (s *Store) GetJob(_ context.Context, jobID string) (scraper.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return scraper.Job{}, ErrJobNotFound
	}
	return job, nil
}

// MarkRunning transitions the job to running, creating it when missing.
func (s *Store) MarkRunning(_ context.Context, jobID string, params scraper.BatchParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		job = scraper.Job{ID: jobID, Params: params, CreatedAt: time.Now().UTC()}
	}
	job.Status = scraper.JobStatusRunning
	s.jobs[jobID] = job
	return nil
}

// FinishResults records all result rows and the finished status together
// under one lock, mirroring the transactional Postgres path.
func (s *Store) FinishResults(
	_ context.Context,
	jobID string,
	records []scraper.ContactRecord,
	finishedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	s.results[jobID] = append(s.results[jobID], records...)
	job.Status = scraper.JobStatusFinished
	job.FinishedAt = &finishedAt
	s.jobs[jobID] = job
	return nil
}

// ListResults returns the persisted records for a job.
func (s *Store) ListResults(_ context.Context, jobID string) ([]scraper.ContactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]scraper.ContactRecord(nil), s.results[jobID]...), nil
}

// Close implements scraper.JobStore; nothing to release.
func (s *Store) Close() {}
