package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

// MockJobRepo is a mock implementation of port.JobRepository.
//
// Mutate is matched on (ctx, id). The stubbed job is copied, the mutation is
// applied to the copy and any error ledger row it returns is kept in ErrorRows.
type MockJobRepo struct {
	mock.Mock
	ErrorRows []domain.ExtractionError
}

func (m *MockJobRepo) Create(ctx context.Context, job *domain.ExtractionJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionJob), args.Error(1)
}

func (m *MockJobRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionJob, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionJob), args.Error(1)
}

func (m *MockJobRepo) ListFailedWithoutError(ctx context.Context) ([]domain.ExtractionJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionJob), args.Error(1)
}

func (m *MockJobRepo) Mutate(ctx context.Context, id uuid.UUID, fn port.JobMutation) (*domain.ExtractionJob, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	job := *args.Get(0).(*domain.ExtractionJob)
	errRow, err := fn(&job)
	if err != nil {
		return nil, err
	}
	if errRow != nil {
		m.ErrorRows = append(m.ErrorRows, *errRow)
	}
	return &job, nil
}
