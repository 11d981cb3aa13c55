package sqldb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

func transitionTo(to domain.JobStatus) func(*domain.ExtractionJob) (*domain.ExtractionError, error) {
	return func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		return nil, j.Transition(to, time.Now())
	}
}

func TestJobRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()

	job := seedJob(t, repo, domain.JobStatusPending)

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, got.Status)
	assert.Equal(t, domain.MethodNativePDF, got.Method)
	assert.Equal(t, domain.SLAClassA, got.SLAClass)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.DurationMs)
	assert.True(t, job.QueuedAt.Equal(got.QueuedAt))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

// Every (from, to) pair goes through Mutate; rejected writes leave the
// stored status unchanged.
func TestJobRepo_Mutate_TransitionGrid(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()

	for _, from := range domain.AllJobStatuses {
		for _, to := range domain.AllJobStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				job := seedJob(t, repo, from)

				updated, err := repo.Mutate(ctx, job.ID, transitionTo(to))
				stored, getErr := repo.GetByID(ctx, job.ID)
				require.NoError(t, getErr)

				if domain.CanTransition(from, to) {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					assert.Equal(t, to, stored.Status)
					return
				}
				var tv *domain.TransitionViolation
				require.ErrorAs(t, err, &tv)
				assert.Equal(t, from, tv.From)
				assert.Equal(t, to, tv.To)
				assert.Equal(t, domain.AllowedTransitions(from), tv.Allowed)
				assert.Equal(t, from, stored.Status)
			})
		}
	}
}

// Raw UPDATEs that bypass the service are rejected by the storage trigger.
func TestJobRepo_TriggerRejectsIllegalRawUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()

	tests := []struct {
		from domain.JobStatus
		to   domain.JobStatus
	}{
		{domain.JobStatusPending, domain.JobStatusDone},
		{domain.JobStatusDone, domain.JobStatusPending},
		{domain.JobStatusDone, domain.JobStatusFailed},
		{domain.JobStatusFailed, domain.JobStatusDone},
		{domain.JobStatusProcessing, domain.JobStatusPending},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			job := seedJob(t, repo, tt.from)

			_, err := db.ExecContext(ctx, `UPDATE extraction_jobs SET status = ? WHERE id = ?`, tt.to, job.ID)
			require.Error(t, err)
			assert.ErrorIs(t, translateError(err), domain.ErrTransitionViolation)

			stored, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.from, stored.Status)
		})
	}
}

func TestJobRepo_TriggerRejectsImmutableFieldChange(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()
	job := seedJob(t, repo, domain.JobStatusPending)

	_, err := db.ExecContext(ctx, `UPDATE extraction_jobs SET method = ? WHERE id = ?`, domain.MethodAzure, job.ID)
	require.Error(t, err)
	assert.ErrorIs(t, translateError(err), domain.ErrImmutableField)

	_, err = repo.Mutate(ctx, job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		j.SLAClass = domain.SLAClassB
		return nil, nil
	})
	assert.ErrorIs(t, err, domain.ErrImmutableField)

	stored, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodNativePDF, stored.Method)
	assert.Equal(t, domain.SLAClassA, stored.SLAClass)
}

func TestJobRepo_Mutate_TimingFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()
	job := seedJob(t, repo, domain.JobStatusPending)

	processing, err := repo.Mutate(ctx, job.ID, transitionTo(domain.JobStatusProcessing))
	require.NoError(t, err)
	require.NotNil(t, processing.StartedAt)
	assert.Nil(t, processing.CompletedAt)
	startedAt := *processing.StartedAt

	// A same-status write is a pass-through and does not restamp started_at.
	again, err := repo.Mutate(ctx, job.ID, transitionTo(domain.JobStatusProcessing))
	require.NoError(t, err)
	assert.True(t, startedAt.Equal(*again.StartedAt))

	time.Sleep(5 * time.Millisecond)
	done, err := repo.Mutate(ctx, job.ID, transitionTo(domain.JobStatusDone))
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.DurationMs)
	assert.True(t, startedAt.Equal(*done.StartedAt))
	assert.Equal(t, done.CompletedAt.Sub(*done.StartedAt).Milliseconds(), *done.DurationMs)
	assert.GreaterOrEqual(t, *done.DurationMs, int64(5))
}

func TestJobRepo_Mutate_PendingToFailedHasNoDuration(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)

	failed := seedJob(t, repo, domain.JobStatusFailed)
	assert.NotNil(t, failed.CompletedAt)
	assert.Nil(t, failed.StartedAt)
	assert.Nil(t, failed.DurationMs)
}

func TestJobRepo_Mutate_RetryResetsTiming(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()
	job := seedJob(t, repo, domain.JobStatusProcessing)

	failed, err := repo.Mutate(ctx, job.ID, transitionTo(domain.JobStatusFailed))
	require.NoError(t, err)
	require.NotNil(t, failed.DurationMs)

	retried, err := repo.Mutate(ctx, job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		if err := j.Transition(domain.JobStatusPending, time.Now()); err != nil {
			return nil, err
		}
		j.RetryCount++
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, retried.Status)
	assert.Equal(t, 1, retried.RetryCount)
	assert.Nil(t, retried.StartedAt)
	assert.Nil(t, retried.CompletedAt)
	assert.Nil(t, retried.DurationMs)
}

func TestJobRepo_Mutate_FnErrorWritesNothing(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()
	job := seedJob(t, repo, domain.JobStatusPending)
	boom := errors.New("boom")

	_, err := repo.Mutate(ctx, job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		j.WorkerID = ptr("w-1")
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.WorkerID)
}

func TestJobRepo_Mutate_InsertsErrorRowAtomically(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	errRepo := NewErrorRepo(db)
	ctx := context.Background()
	job := seedJob(t, repo, domain.JobStatusProcessing)

	failed, err := repo.Mutate(ctx, job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		if err := j.Transition(domain.JobStatusFailed, time.Now()); err != nil {
			return nil, err
		}
		j.ErrorMessage = ptr("ocr engine crashed")
		return &domain.ExtractionError{
			ID:                  uuid.New(),
			DocumentID:          j.DocumentID,
			JobID:               &j.ID,
			ErrorCode:           domain.ErrorCodeOCRFailed,
			ErrorDetail:         "ocr engine crashed",
			RequiresHumanReview: false,
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)

	rows, err := errRepo.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ErrorCodeOCRFailed, rows[0].ErrorCode)
	assert.False(t, rows[0].RequiresHumanReview)

	// An illegal transition in the same mutation drops the error row too.
	_, err = repo.Mutate(ctx, job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		j.Status = domain.JobStatusDone
		return &domain.ExtractionError{
			ID: uuid.New(), DocumentID: j.DocumentID, JobID: &j.ID,
			ErrorCode: domain.ErrorCodeParseError, ErrorDetail: "unreachable",
		}, nil
	})
	assert.ErrorIs(t, err, domain.ErrTransitionViolation)

	rows, err = errRepo.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestJobRepo_ListByDocumentAndFailedWithoutError(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	errRepo := NewErrorRepo(db)
	ctx := context.Background()

	orphan := seedJob(t, repo, domain.JobStatusFailed)
	covered := seedJob(t, repo, domain.JobStatusFailed)
	seedJob(t, repo, domain.JobStatusDone)

	require.NoError(t, errRepo.Create(ctx, &domain.ExtractionError{
		ID: uuid.New(), DocumentID: covered.DocumentID, JobID: &covered.ID,
		ErrorCode: domain.ErrorCodeCorruptFile, ErrorDetail: "bad xref table", RequiresHumanReview: true,
	}))

	jobs, err := repo.ListFailedWithoutError(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, orphan.ID, jobs[0].ID)

	byDoc, err := repo.ListByDocument(ctx, orphan.DocumentID)
	require.NoError(t, err)
	require.Len(t, byDoc, 1)
	assert.Equal(t, orphan.ID, byDoc[0].ID)
}

// Two claimants race for the same pending job; exactly one wins.
func TestJobRepo_Mutate_ConcurrentClaim(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	job := seedJob(t, repo, domain.JobStatusPending)

	claim := func(worker string) error {
		_, err := repo.Mutate(context.Background(), job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
			if j.Status != domain.JobStatusPending {
				return nil, domain.ErrJobClaimConflict
			}
			if err := j.Transition(domain.JobStatusProcessing, time.Now()); err != nil {
				return nil, err
			}
			j.WorkerID = &worker
			return nil, nil
		})
		return err
	}

	results := make([]error, 2)
	var g errgroup.Group
	for i, worker := range []string{"worker-a", "worker-b"} {
		g.Go(func() error {
			results[i] = claim(worker)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrJobClaimConflict), errors.Is(err, domain.ErrTransitionViolation):
			losses++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, stored.Status)
	require.NotNil(t, stored.WorkerID)
}

func TestJobRepo_StoresTimesInUTC(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()
	ist := time.FixedZone("IST", 5*3600+1800)

	job := &domain.ExtractionJob{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		Status:     domain.JobStatusPending,
		Method:     domain.MethodAzure,
		SLAClass:   domain.SLAClassB,
		QueuedAt:   time.Date(2026, 4, 1, 9, 0, 0, 0, ist),
		MaxRetries: 1,
	}
	require.NoError(t, repo.Create(ctx, job))
	assert.Equal(t, time.UTC, job.QueuedAt.Location())

	_, err := repo.Mutate(ctx, job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		if err := j.Transition(domain.JobStatusProcessing, time.Now()); err != nil {
			return nil, err
		}
		started := time.Now().In(ist)
		j.StartedAt = &started
		return nil, nil
	})
	require.NoError(t, err)

	var queued, started string
	require.NoError(t, db.QueryRowxContext(ctx,
		`SELECT CAST(queued_at AS TEXT), CAST(started_at AS TEXT) FROM extraction_jobs WHERE id = ?`, job.ID,
	).Scan(&queued, &started))
	assert.True(t, strings.HasSuffix(queued, "+00:00"), queued)
	assert.True(t, strings.HasSuffix(started, "+00:00"), started)
	assert.True(t, strings.HasPrefix(queued, "2026-04-01 03:30:00"), queued)
}

// Status changes made with plain UPDATE statements still get timing columns.
func TestJobRepo_TriggerStampsTimingOnRawUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, 0).(*jobRepo)
	ctx := context.Background()
	job := seedJob(t, repo, domain.JobStatusPending)

	setStatus := func(to domain.JobStatus) *domain.ExtractionJob {
		t.Helper()
		_, err := db.ExecContext(ctx, `UPDATE extraction_jobs SET status = ? WHERE id = ?`, to, job.ID)
		require.NoError(t, err)
		stored, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		return stored
	}

	stored := setStatus(domain.JobStatusProcessing)
	require.NotNil(t, stored.StartedAt)
	assert.WithinDuration(t, time.Now(), *stored.StartedAt, time.Minute)
	assert.Nil(t, stored.CompletedAt)

	stored = setStatus(domain.JobStatusFailed)
	require.NotNil(t, stored.CompletedAt)
	require.NotNil(t, stored.DurationMs)
	assert.GreaterOrEqual(t, *stored.DurationMs, int64(0))
	assert.False(t, stored.CompletedAt.Before(*stored.StartedAt))

	stored = setStatus(domain.JobStatusPending)
	assert.Nil(t, stored.StartedAt)
	assert.Nil(t, stored.CompletedAt)
	assert.Nil(t, stored.DurationMs)
}
