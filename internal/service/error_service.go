package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

// RecordErrorInput is the DTO for writing an error ledger row.
type RecordErrorInput struct {
	DocumentID uuid.UUID        `json:"document_id"`
	JobID      *uuid.UUID       `json:"job_id"`
	ErrorCode  domain.ErrorCode `json:"error_code"`
	Detail     string           `json:"detail"`
	// RequiresHuman defaults to true when nil.
	RequiresHuman *bool `json:"requires_human"`
}

// ErrorService owns the extraction error ledger.
type ErrorService interface {
	RecordError(ctx context.Context, input RecordErrorInput) (*domain.ExtractionError, error)
	ListErrorsByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionError, error)
	ListErrorsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.ExtractionError, error)
}

type errorService struct {
	repo port.ErrorRepository
}

// NewErrorService creates a new ErrorService implementation.
func NewErrorService(repo port.ErrorRepository) ErrorService {
	return &errorService{repo: repo}
}

func (s *errorService) RecordError(ctx context.Context, input RecordErrorInput) (*domain.ExtractionError, error) {
	if input.DocumentID == uuid.Nil {
		return nil, domain.ErrMissingDocumentID
	}
	if !input.ErrorCode.Valid() {
		return nil, domain.ErrInvalidErrorCode
	}
	detail := strings.TrimSpace(input.Detail)
	if detail == "" {
		return nil, domain.ErrMissingErrorDetail
	}
	requiresHuman := true
	if input.RequiresHuman != nil {
		requiresHuman = *input.RequiresHuman
	}

	e := &domain.ExtractionError{
		ID:                  uuid.New(),
		DocumentID:          input.DocumentID,
		JobID:               input.JobID,
		ErrorCode:           input.ErrorCode,
		ErrorDetail:         detail,
		RequiresHumanReview: requiresHuman,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldDocumentID: e.DocumentID,
		logger.FieldErrorCode:  e.ErrorCode,
		"requires_human":       e.RequiresHumanReview,
	}).Info("errorService.RecordError: failure recorded")
	return e, nil
}

func (s *errorService) ListErrorsByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionError, error) {
	return s.repo.ListByDocument(ctx, documentID)
}

func (s *errorService) ListErrorsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.ExtractionError, error) {
	return s.repo.ListByJob(ctx, jobID)
}
