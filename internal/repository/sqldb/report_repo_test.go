package sqldb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

func TestReportRepo_SLAReport(t *testing.T) {
	db := newTestDB(t)
	jobs := NewJobRepo(db, 0).(*jobRepo)
	since := time.Now().UTC().Add(-time.Minute)

	seedJob(t, jobs, domain.JobStatusDone)
	seedJob(t, jobs, domain.JobStatusDone)
	seedJob(t, jobs, domain.JobStatusFailed)
	seedJob(t, jobs, domain.JobStatusPending)

	rows, err := NewReportRepo(db).SLAReport(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, domain.SLAClassA, row.SLAClass)
	assert.Equal(t, domain.MethodNativePDF, row.Method)
	assert.Equal(t, 4, row.Total)
	assert.Equal(t, 2, row.Done)
	assert.Equal(t, 1, row.Failed)
	require.NotNil(t, row.AvgDurationMs)
	require.NotNil(t, row.MaxDurationMs)
	assert.GreaterOrEqual(t, *row.AvgDurationMs, float64(0))

	rows, err = NewReportRepo(db).SLAReport(context.Background(), time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
