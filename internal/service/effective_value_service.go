package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

// EffectiveValueService answers "what is the current authoritative data" for
// an extraction. Values are resolved by the database on every call.
type EffectiveValueService interface {
	GetEffectiveValue(ctx context.Context, extractionID uuid.UUID) (*domain.EffectiveValue, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.EffectiveValue, error)
}

type effectiveValueService struct {
	repo port.EffectiveValueRepository
}

// NewEffectiveValueService creates a new EffectiveValueService implementation.
func NewEffectiveValueService(repo port.EffectiveValueRepository) EffectiveValueService {
	return &effectiveValueService{repo: repo}
}

func (s *effectiveValueService) GetEffectiveValue(ctx context.Context, extractionID uuid.UUID) (*domain.EffectiveValue, error) {
	return s.repo.GetByExtraction(ctx, extractionID)
}

func (s *effectiveValueService) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.EffectiveValue, error) {
	return s.repo.ListByDocument(ctx, documentID)
}
