package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

const jobColumns = `id, document_id, status, method, sla_class, queued_at, started_at,
	completed_at, duration_ms, worker_id, retry_count, max_retries, error_message, updated_at`

type jobRepo struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewJobRepo creates a new JobRepository. lockTimeout bounds how long Mutate
// waits for another transaction holding the job row on PostgreSQL.
func NewJobRepo(db *sqlx.DB, lockTimeout time.Duration) port.JobRepository {
	return &jobRepo{db: db, lockTimeout: lockTimeout}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.ExtractionJob) error {
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now()
	}
	job.QueuedAt = job.QueuedAt.UTC()
	job.UpdatedAt = job.QueuedAt

	query := r.db.Rebind(`INSERT INTO extraction_jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.DocumentID, job.Status, job.Method, job.SLAClass, job.QueuedAt, job.StartedAt,
		job.CompletedAt, job.DurationMs, job.WorkerID, job.RetryCount, job.MaxRetries, job.ErrorMessage, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("jobRepo.Create: %w", translateError(err))
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	job, err := getJob(ctx, r.db, id, false)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.GetByID: %w", err)
	}
	return job, nil
}

func (r *jobRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionJob, error) {
	var jobs []domain.ExtractionJob
	query := r.db.Rebind(`SELECT ` + jobColumns + ` FROM extraction_jobs
		WHERE document_id = ? ORDER BY queued_at, id`)
	if err := r.db.SelectContext(ctx, &jobs, query, documentID); err != nil {
		return nil, fmt.Errorf("jobRepo.ListByDocument: %w", err)
	}
	return jobs, nil
}

func (r *jobRepo) ListFailedWithoutError(ctx context.Context) ([]domain.ExtractionJob, error) {
	var jobs []domain.ExtractionJob
	query := r.db.Rebind(`SELECT ` + jobColumns + ` FROM extraction_jobs
		WHERE status = ?
		  AND id NOT IN (SELECT job_id FROM extraction_errors WHERE job_id IS NOT NULL)
		ORDER BY queued_at, id`)
	if err := r.db.SelectContext(ctx, &jobs, query, domain.JobStatusFailed); err != nil {
		return nil, fmt.Errorf("jobRepo.ListFailedWithoutError: %w", err)
	}
	return jobs, nil
}

// Mutate runs fn against the locked row inside one transaction. On PostgreSQL
// the row is held with SELECT ... FOR UPDATE so concurrent callers serialize;
// the losing caller then sees the winner's status. The stored row is
// re-read before commit because the PostgreSQL trigger stamps timing columns.
func (r *jobRepo) Mutate(ctx context.Context, id uuid.UUID, fn port.JobMutation) (*domain.ExtractionJob, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.Mutate: begin: %w", translateError(err))
	}
	defer tx.Rollback() //nolint:errcheck

	pg := isPostgres(r.db)
	if pg && r.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("jobRepo.Mutate: lock timeout: %w", err)
		}
	}

	job, err := getJob(ctx, tx, id, pg)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.Mutate: %w", err)
	}
	from := job.Status

	errRow, err := fn(job)
	if err != nil {
		return nil, err
	}
	normalizeJobTimes(job)

	query := tx.Rebind(`UPDATE extraction_jobs SET
		document_id = ?, method = ?, sla_class = ?, queued_at = ?,
		status = ?, started_at = ?, completed_at = ?, duration_ms = ?, worker_id = ?,
		retry_count = ?, max_retries = ?, error_message = ?, updated_at = ?
		WHERE id = ?`)
	_, err = tx.ExecContext(ctx, query,
		job.DocumentID, job.Method, job.SLAClass, job.QueuedAt,
		job.Status, job.StartedAt, job.CompletedAt, job.DurationMs, job.WorkerID,
		job.RetryCount, job.MaxRetries, job.ErrorMessage, job.UpdatedAt,
		id)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.Mutate: %w", jobWriteError(err, id, from, job.Status))
	}

	if errRow != nil {
		if err := insertError(ctx, tx, errRow); err != nil {
			return nil, fmt.Errorf("jobRepo.Mutate: %w", err)
		}
	}

	stored, err := getJob(ctx, tx, id, false)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.Mutate: reload: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("jobRepo.Mutate: commit: %w", translateError(err))
	}
	return stored, nil
}

func getJob(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, forUpdate bool) (*domain.ExtractionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM extraction_jobs WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var job domain.ExtractionJob
	if err := sqlx.GetContext(ctx, q, &job, q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, translateError(err)
	}
	return &job, nil
}

// jobWriteError fills in the row context a trigger-raised violation lacks.
func jobWriteError(err error, id uuid.UUID, from, to domain.JobStatus) error {
	err = translateError(err)
	var tv *domain.TransitionViolation
	if errors.As(err, &tv) {
		tv.JobID = id
		if tv.From == "" {
			tv.From, tv.To = from, to
			tv.Allowed = domain.AllowedTransitions(from)
		}
	}
	return err
}

// normalizeJobTimes converts every timestamp to UTC before it is written.
func normalizeJobTimes(j *domain.ExtractionJob) {
	j.QueuedAt = j.QueuedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	for _, t := range []**time.Time{&j.StartedAt, &j.CompletedAt} {
		if *t != nil {
			u := (*t).UTC()
			*t = &u
		}
	}
}
