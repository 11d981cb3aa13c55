package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

// MockErrorRepo is a mock implementation of port.ErrorRepository.
type MockErrorRepo struct {
	mock.Mock
}

func (m *MockErrorRepo) Create(ctx context.Context, e *domain.ExtractionError) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockErrorRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionError, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionError), args.Error(1)
}

func (m *MockErrorRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]domain.ExtractionError, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionError), args.Error(1)
}
