package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

// MockEffectiveValueRepo is a mock implementation of port.EffectiveValueRepository.
type MockEffectiveValueRepo struct {
	mock.Mock
}

func (m *MockEffectiveValueRepo) GetByExtraction(ctx context.Context, extractionID uuid.UUID) (*domain.EffectiveValue, error) {
	args := m.Called(ctx, extractionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EffectiveValue), args.Error(1)
}

func (m *MockEffectiveValueRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.EffectiveValue, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EffectiveValue), args.Error(1)
}
