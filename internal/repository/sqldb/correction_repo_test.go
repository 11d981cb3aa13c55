package sqldb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

func appendCorrection(t *testing.T, repo *correctionRepo, extractionID uuid.UUID, data string, at time.Time) *domain.ExtractionCorrection {
	t.Helper()
	c := &domain.ExtractionCorrection{
		ID:             uuid.Must(uuid.NewV7()),
		ExtractionID:   extractionID,
		StructuredData: json.RawMessage(data),
		CorrectedBy:    "reviewer@example.com",
		CorrectedAt:    at,
	}
	require.NoError(t, repo.Append(context.Background(), c))
	return c
}

func TestCorrectionRepo_UpdateAndDeleteRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewCorrectionRepo(db).(*correctionRepo)
	ctx := context.Background()

	ext := seedExtraction(t, db, `{"total":"100"}`, ptr(0.5))
	c := appendCorrection(t, repo, ext.ID, `{"total":"110"}`, time.Now().UTC())

	changed := *c
	changed.StructuredData = json.RawMessage(`{"total":"999"}`)
	changed.CorrectedBy = "intruder"

	err := repo.Update(ctx, &changed)
	var v *domain.AppendOnlyViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, domain.InvariantAppendOnlyCorrections, v.Invariant)
	assert.Equal(t, "UPDATE", v.Op)
	assert.Equal(t, "extraction_corrections", v.Table)
	assert.Equal(t, c.ID, v.RowID)

	err = repo.Delete(ctx, c.ID)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "DELETE", v.Op)
	assert.ErrorIs(t, err, domain.ErrAppendOnlyViolation)

	stored, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"110"}`, string(stored.StructuredData))
	assert.Equal(t, "reviewer@example.com", stored.CorrectedBy)
}

func TestCorrectionRepo_RawStatementsRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewCorrectionRepo(db).(*correctionRepo)
	ctx := context.Background()

	ext := seedExtraction(t, db, `{"a":1}`, nil)
	appendCorrection(t, repo, ext.ID, `{"a":2}`, time.Now().UTC())

	_, err := db.ExecContext(ctx, `UPDATE extraction_corrections SET corrected_by = 'x'`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INV-6")

	_, err = db.ExecContext(ctx, `DELETE FROM extraction_corrections`)
	require.Error(t, err)
	assert.ErrorIs(t, translateError(err), domain.ErrAppendOnlyViolation)

	rows, err := repo.ListByExtraction(ctx, ext.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCorrectionRepo_AppendUnknownExtraction(t *testing.T) {
	db := newTestDB(t)
	repo := NewCorrectionRepo(db).(*correctionRepo)

	err := repo.Append(context.Background(), &domain.ExtractionCorrection{
		ID:             uuid.New(),
		ExtractionID:   uuid.New(),
		StructuredData: json.RawMessage(`{}`),
		CorrectedBy:    "someone",
	})
	assert.ErrorIs(t, err, domain.ErrExtractionNotFound)
}

func TestCorrectionRepo_UpdateUnknownRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewCorrectionRepo(db).(*correctionRepo)

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrCorrectionNotFound)
}

func TestCorrectionRepo_ListByExtraction_OldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewCorrectionRepo(db).(*correctionRepo)
	ext := seedExtraction(t, db, `{"v":"0"}`, nil)
	base := time.Now().UTC()

	second := appendCorrection(t, repo, ext.ID, `{"v":"2"}`, base.Add(time.Second))
	first := appendCorrection(t, repo, ext.ID, `{"v":"1"}`, base)

	rows, err := repo.ListByExtraction(context.Background(), ext.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestCorrectionRepo_ListByExtraction_OrdersAcrossZones(t *testing.T) {
	db := newTestDB(t)
	repo := NewCorrectionRepo(db).(*correctionRepo)
	ext := seedExtraction(t, db, `{"v":"0"}`, nil)

	ist := time.FixedZone("IST", 5*3600+1800)
	pst := time.FixedZone("PST", -8*3600)
	first := appendCorrection(t, repo, ext.ID, `{"v":"1"}`, time.Date(2026, 1, 10, 20, 0, 0, 0, ist)) // 14:30Z
	second := appendCorrection(t, repo, ext.ID, `{"v":"2"}`, time.Date(2026, 1, 10, 7, 0, 0, 0, pst)) // 15:00Z

	rows, err := repo.ListByExtraction(context.Background(), ext.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
	assert.True(t, second.CorrectedAt.Equal(rows[1].CorrectedAt))
}
