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

func TestEffectiveValueRepo_NoCorrectionsReturnsOriginal(t *testing.T) {
	db := newTestDB(t)
	repo := NewEffectiveValueRepo(db)
	ext := seedExtraction(t, db, `{"original":"v0"}`, ptr(0.42))

	v, err := repo.GetByExtraction(context.Background(), ext.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"original":"v0"}`, string(v.StructuredData))
	require.NotNil(t, v.ConfidenceScore)
	assert.InDelta(t, 0.42, *v.ConfidenceScore, 1e-9)
	assert.False(t, v.IsCorrected())
	assert.Nil(t, v.CorrectedAt)
	assert.Nil(t, v.CorrectedBy)
	assert.Zero(t, v.CorrectionCount)
	assert.Equal(t, ext.DocumentID, v.DocumentID)
	assert.Equal(t, domain.MethodTesseract, v.Method)
}

func TestEffectiveValueRepo_LatestCorrectionWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewEffectiveValueRepo(db)
	corrections := NewCorrectionRepo(db).(*correctionRepo)
	ctx := context.Background()

	ext := seedExtraction(t, db, `{"original":"v0"}`, ptr(0.3))
	base := time.Now().UTC()

	c1 := appendCorrection(t, corrections, ext.ID, `{"v":"1"}`, base)

	v, err := repo.GetByExtraction(ctx, ext.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"1"}`, string(v.StructuredData))
	require.NotNil(t, v.CorrectionID)
	assert.Equal(t, c1.ID, *v.CorrectionID)
	assert.Equal(t, 1, v.CorrectionCount)

	c2 := &domain.ExtractionCorrection{
		ID:                 uuid.Must(uuid.NewV7()),
		ExtractionID:       ext.ID,
		StructuredData:     json.RawMessage(`{"v":"2"}`),
		ConfidenceOverride: ptr(0.99),
		CorrectionReason:   ptr("supplier name misread"),
		CorrectedBy:        "second@example.com",
		CorrectedAt:        base.Add(time.Second),
	}
	require.NoError(t, corrections.Append(ctx, c2))

	v, err = repo.GetByExtraction(ctx, ext.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"2"}`, string(v.StructuredData))
	require.NotNil(t, v.ConfidenceScore)
	assert.InDelta(t, 0.99, *v.ConfidenceScore, 1e-9)
	assert.Equal(t, c2.ID, *v.CorrectionID)
	assert.Equal(t, "second@example.com", *v.CorrectedBy)
	assert.Equal(t, "supplier name misread", *v.CorrectionReason)
	require.NotNil(t, v.CorrectedAt)
	assert.True(t, c2.CorrectedAt.Equal(*v.CorrectedAt))
	assert.Equal(t, 2, v.CorrectionCount)
}

// A correction without a confidence override keeps the extraction's score.
func TestEffectiveValueRepo_ConfidenceFallsBackToOriginal(t *testing.T) {
	db := newTestDB(t)
	repo := NewEffectiveValueRepo(db)
	corrections := NewCorrectionRepo(db).(*correctionRepo)

	ext := seedExtraction(t, db, `{"a":"x"}`, ptr(0.61))
	appendCorrection(t, corrections, ext.ID, `{"a":"y"}`, time.Now().UTC())

	v, err := repo.GetByExtraction(context.Background(), ext.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"y"}`, string(v.StructuredData))
	require.NotNil(t, v.ConfidenceScore)
	assert.InDelta(t, 0.61, *v.ConfidenceScore, 1e-9)
}

// Identical timestamps fall back to the larger id. V7 ids grow with time.
func TestEffectiveValueRepo_TieBreaksOnID(t *testing.T) {
	db := newTestDB(t)
	repo := NewEffectiveValueRepo(db)
	corrections := NewCorrectionRepo(db).(*correctionRepo)
	at := time.Now().UTC()

	ext := seedExtraction(t, db, `{"v":"0"}`, nil)
	appendCorrection(t, corrections, ext.ID, `{"v":"a"}`, at)
	last := appendCorrection(t, corrections, ext.ID, `{"v":"b"}`, at)

	v, err := repo.GetByExtraction(context.Background(), ext.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, *v.CorrectionID)
	assert.JSONEq(t, `{"v":"b"}`, string(v.StructuredData))
}

func TestEffectiveValueRepo_ListByDocument(t *testing.T) {
	db := newTestDB(t)
	repo := NewEffectiveValueRepo(db)
	extractions := NewExtractionRepo(db)
	ctx := context.Background()
	docID := uuid.New()
	base := time.Now().UTC()

	for i, data := range []string{`{"page":1}`, `{"page":2}`} {
		require.NoError(t, extractions.Create(ctx, &domain.Extraction{
			ID:             uuid.New(),
			DocumentID:     docID,
			Method:         domain.MethodAzure,
			StructuredData: json.RawMessage(data),
			ExtractedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}
	seedExtraction(t, db, `{"other":true}`, nil)

	rows, err := repo.ListByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.JSONEq(t, `{"page":1}`, string(rows[0].StructuredData))
	assert.JSONEq(t, `{"page":2}`, string(rows[1].StructuredData))

	_, err = repo.GetByExtraction(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrExtractionNotFound)
}

// A later correction wins even when its timestamp was supplied in a zone
// whose local clock reads earlier.
func TestEffectiveValueRepo_LatestCorrectionWinsAcrossZones(t *testing.T) {
	db := newTestDB(t)
	repo := NewEffectiveValueRepo(db)
	corrections := NewCorrectionRepo(db).(*correctionRepo)
	ext := seedExtraction(t, db, `{"v":"0"}`, nil)

	early := time.Date(2026, 3, 2, 10, 0, 5, 0, time.UTC)
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2026, 3, 2, 6, 0, 5, 0, est) // 11:00:05Z

	appendCorrection(t, corrections, ext.ID, `{"v":"early"}`, early)
	c2 := appendCorrection(t, corrections, ext.ID, `{"v":"late"}`, late)
	assert.Equal(t, time.UTC, c2.CorrectedAt.Location())

	v, err := repo.GetByExtraction(context.Background(), ext.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"late"}`, string(v.StructuredData))
	require.NotNil(t, v.CorrectionID)
	assert.Equal(t, c2.ID, *v.CorrectionID)
	require.NotNil(t, v.CorrectedAt)
	assert.True(t, late.Equal(*v.CorrectedAt))
}
