package sqldb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/config"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := NewDB(&config.DBConfig{
		Driver:      config.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "ledger.db"),
		BusyTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, MigrateUp(db))
	return db
}

func seedJob(t *testing.T, repo *jobRepo, status domain.JobStatus) *domain.ExtractionJob {
	t.Helper()
	job := &domain.ExtractionJob{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		Status:     domain.JobStatusPending,
		Method:     domain.MethodNativePDF,
		SLAClass:   domain.SLAClassA,
		MaxRetries: 3,
	}
	require.NoError(t, repo.Create(context.Background(), job))

	// Walk the legal path to the requested status.
	path := map[domain.JobStatus][]domain.JobStatus{
		domain.JobStatusPending:    nil,
		domain.JobStatusProcessing: {domain.JobStatusProcessing},
		domain.JobStatusDone:       {domain.JobStatusProcessing, domain.JobStatusDone},
		domain.JobStatusFailed:     {domain.JobStatusFailed},
	}
	for _, s := range path[status] {
		to := s
		updated, err := repo.Mutate(context.Background(), job.ID, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
			return nil, j.Transition(to, time.Now())
		})
		require.NoError(t, err)
		job = updated
	}
	return job
}

func seedExtraction(t *testing.T, db *sqlx.DB, data string, confidence *float64) *domain.Extraction {
	t.Helper()
	e := &domain.Extraction{
		ID:              uuid.New(),
		DocumentID:      uuid.New(),
		Method:          domain.MethodTesseract,
		StructuredData:  json.RawMessage(data),
		ConfidenceScore: confidence,
	}
	require.NoError(t, NewExtractionRepo(db).Create(context.Background(), e))
	return e
}

func ptr[T any](v T) *T { return &v }
