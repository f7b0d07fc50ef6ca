package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/neonlead/leadscraper/internal/scraper"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	store, err := NewWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func TestCreateJob(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("job-1", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	job := scraper.Job{
		ID:        "job-1",
		Status:    scraper.JobStatusQueued,
		Params:    scraper.BatchParams{URLs: []string{"acme.com"}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJob(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "status", "params", "created_at", "finished_at"}).
		AddRow("job-1", "queued", []byte(`{"urls":["acme.com"],"concurrency":3}`), createdAt, (*time.Time)(nil))
	mock.ExpectQuery("SELECT id, status, params, created_at, finished_at FROM jobs").
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, scraper.JobStatusQueued, job.Status)
	require.Equal(t, []string{"acme.com"}, job.Params.URLs)
	require.Equal(t, 3, job.Params.Concurrency)
	require.Nil(t, job.FinishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, status, params, created_at, finished_at FROM jobs").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetJob(context.Background(), "missing")
	require.ErrorIs(t, err, ErrJobNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRunningUpserts(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("job-1", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.MarkRunning(context.Background(), "job-1", scraper.BatchParams{URLs: []string{"acme.com"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinishResultsCommitsAtomically(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	records := []scraper.ContactRecord{
		{
			URL:     "http://acme.com",
			Org:     "Acme",
			Title:   "Acme Corp",
			Emails:  []string{"info@acme.com", "sales@acme.com"},
			Phones:  []string{"555 123 4567"},
			Socials: []string{},
			OK:      true,
		},
		{URL: "http://down.example", Error: "connection refused"},
	}
	finishedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO results").
		WithArgs("job-1", "http://acme.com", "Acme", "Acme Corp",
			"info@acme.com,sales@acme.com", "555 123 4567", "", 1, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO results").
		WithArgs("job-1", "http://down.example", "", "", "", "", "", 0, "connection refused").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE jobs SET status").
		WithArgs("job-1", "finished", finishedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.FinishResults(context.Background(), "job-1", records, finishedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinishResultsRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO results").
		WithArgs("job-1", "http://acme.com", "", "", "", "", "", 0, "").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.FinishResults(context.Background(), "job-1",
		[]scraper.ContactRecord{{URL: "http://acme.com"}}, time.Now().UTC())
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert result row")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListResults(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"url", "org", "title", "emails", "phones", "socials", "ok", "error"}).
		AddRow("http://acme.com", "Acme", "Acme Corp", "info@acme.com,sales@acme.com", "", "https://linkedin.com/company/acme", 1, "").
		AddRow("http://blocked.example", "", "", "", "", "", 0, "blocked_by_robots")
	mock.ExpectQuery("SELECT url, org, title, emails, phones, socials, ok, error").
		WithArgs("job-1").
		WillReturnRows(rows)

	records, err := store.ListResults(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.True(t, records[0].OK)
	require.Equal(t, []string{"info@acme.com", "sales@acme.com"}, records[0].Emails)
	require.Empty(t, records[0].Phones)
	require.Equal(t, []string{"https://linkedin.com/company/acme"}, records[0].Socials)

	require.False(t, records[1].OK)
	require.Equal(t, "blocked_by_robots", records[1].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}
