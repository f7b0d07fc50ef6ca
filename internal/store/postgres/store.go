// Package postgres provides the Postgres-backed job store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neonlead/leadscraper/internal/scraper"
)

const listDelimiter = ","

// ErrJobNotFound is returned when a job id has no row.
var ErrJobNotFound = errors.New("job not found")

// pool is the subset of pgxpool.Pool the store uses; pgxmock implements it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store persists jobs and result rows in Postgres. List fields are flattened
// to delimiter-joined strings at this boundary only; in memory they stay
// ordered slices.
type Store struct {
	pool pool
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateJob inserts a new job in queued status.
func (s *Store) CreateJob(ctx context.Context, job scraper.Job) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal job params: %w", err)
	}
	query := `INSERT INTO jobs (id, status, params, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, job.ID, string(job.Status), params, job.CreatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob loads one job by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (scraper.Job, error) {
	query := `SELECT id, status, params, created_at, finished_at FROM jobs WHERE id = $1`
	var (
		job       scraper.Job
		status    string
		rawParams []byte
	)
	err := s.pool.QueryRow(ctx, query, jobID).Scan(&job.ID, &status, &rawParams, &job.CreatedAt, &job.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return scraper.Job{}, ErrJobNotFound
	}
	if err != nil {
		return scraper.Job{}, fmt.Errorf("select job: %w", err)
	}
	job.Status = scraper.JobStatus(status)
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &job.Params); err != nil {
			return scraper.Job{}, fmt.Errorf("unmarshal job params: %w", err)
		}
	}
	return job, nil
}

// MarkRunning transitions the job to running, creating the row when the
// worker sees the job before the submission insert has landed.
func (s *Store) MarkRunning(ctx context.Context, jobID string, params scraper.BatchParams) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal job params: %w", err)
	}
	query := `
INSERT INTO jobs (id, status, params, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`
	if _, err := s.pool.Exec(ctx, query, jobID, string(scraper.JobStatusRunning), rawParams); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	return nil
}

// FinishResults writes all result rows and the finished status in one
// transaction, so readers never observe a finished job with partial results.
func (s *Store) FinishResults(
	ctx context.Context,
	jobID string,
	records []scraper.ContactRecord,
	finishedAt time.Time,
) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finish tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	insert := `
INSERT INTO results (job_id, url, org, title, emails, phones, socials, ok, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, record := range records {
		ok := 0
		if record.OK {
			ok = 1
		}
		_, err := tx.Exec(ctx, insert,
			jobID,
			record.URL,
			record.Org,
			record.Title,
			joinList(record.Emails),
			joinList(record.Phones),
			joinList(record.Socials),
			ok,
			record.Error,
		)
		if err != nil {
			return fmt.Errorf("insert result row: %w", err)
		}
	}

	update := `UPDATE jobs SET status = $2, finished_at = $3 WHERE id = $1`
	if _, err := tx.Exec(ctx, update, jobID, string(scraper.JobStatusFinished), finishedAt); err != nil {
		return fmt.Errorf("finish job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finish tx: %w", err)
	}
	return nil
}

// ListResults returns the persisted records for a job.
func (s *Store) ListResults(ctx context.Context, jobID string) ([]scraper.ContactRecord, error) {
	query := `
SELECT url, org, title, emails, phones, socials, ok, error
FROM results WHERE job_id = $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	defer rows.Close()

	var records []scraper.ContactRecord
	for rows.Next() {
		var (
			record                  scraper.ContactRecord
			emails, phones, socials string
			ok                      int
		)
		if err := rows.Scan(
			&record.URL, &record.Org, &record.Title,
			&emails, &phones, &socials, &ok, &record.Error,
		); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		record.Emails = splitList(emails)
		record.Phones = splitList(phones)
		record.Socials = splitList(socials)
		record.OK = ok != 0
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return records, nil
}

func joinList(values []string) string {
	return strings.Join(values, listDelimiter)
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, listDelimiter)
}
