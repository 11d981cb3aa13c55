package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/service"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/mocks"
)

func TestExtractionService_RecordExtraction(t *testing.T) {
	repo := new(mocks.MockExtractionRepo)
	svc := service.NewExtractionService(repo)
	confidence := 0.64
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Extraction")).Return(nil)

	e, err := svc.RecordExtraction(context.Background(), service.RecordExtractionInput{
		DocumentID:      uuid.New(),
		Method:          domain.MethodTesseract,
		StructuredData:  json.RawMessage(`{"supplier":"ACME"}`),
		ConfidenceScore: &confidence,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.False(t, e.ExtractedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestExtractionService_RecordExtraction_RejectsNonObject(t *testing.T) {
	repo := new(mocks.MockExtractionRepo)
	svc := service.NewExtractionService(repo)

	_, err := svc.RecordExtraction(context.Background(), service.RecordExtractionInput{
		DocumentID:     uuid.New(),
		Method:         domain.MethodAzure,
		StructuredData: json.RawMessage(`"just a string"`),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidStructuredData)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEffectiveValueService_GetEffectiveValue(t *testing.T) {
	repo := new(mocks.MockEffectiveValueRepo)
	svc := service.NewEffectiveValueService(repo)
	id := uuid.New()
	expected := &domain.EffectiveValue{ExtractionID: id, StructuredData: json.RawMessage(`{"v":"2"}`)}
	repo.On("GetByExtraction", mock.Anything, id).Return(expected, nil)

	v, err := svc.GetEffectiveValue(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, expected, v)
}

func TestEffectiveValueService_GetEffectiveValue_NotFound(t *testing.T) {
	repo := new(mocks.MockEffectiveValueRepo)
	svc := service.NewEffectiveValueService(repo)
	id := uuid.New()
	repo.On("GetByExtraction", mock.Anything, id).Return(nil, domain.ErrExtractionNotFound)

	v, err := svc.GetEffectiveValue(context.Background(), id)

	assert.Nil(t, v)
	assert.ErrorIs(t, err, domain.ErrExtractionNotFound)
}
