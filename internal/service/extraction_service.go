package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

// RecordExtractionInput is the DTO for storing an extractor's output.
type RecordExtractionInput struct {
	DocumentID      uuid.UUID               `json:"document_id"`
	JobID           *uuid.UUID              `json:"job_id"`
	Method          domain.ExtractionMethod `json:"method"`
	StructuredData  json.RawMessage         `json:"structured_data"`
	ConfidenceScore *float64                `json:"confidence_score"`
}

// ExtractionService stores original extraction output. Extractions are
// written once by the extractor and corrected only through the ledger.
type ExtractionService interface {
	RecordExtraction(ctx context.Context, input RecordExtractionInput) (*domain.Extraction, error)
	GetExtraction(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
}

type extractionService struct {
	repo port.ExtractionRepository
}

// NewExtractionService creates a new ExtractionService implementation.
func NewExtractionService(repo port.ExtractionRepository) ExtractionService {
	return &extractionService{repo: repo}
}

func (s *extractionService) RecordExtraction(ctx context.Context, input RecordExtractionInput) (*domain.Extraction, error) {
	if input.DocumentID == uuid.Nil {
		return nil, domain.ErrMissingDocumentID
	}
	if !input.Method.Valid() {
		return nil, domain.ErrInvalidMethod
	}
	if err := domain.ValidateStructuredData(input.StructuredData); err != nil {
		return nil, err
	}
	if err := domain.ValidateConfidence(input.ConfidenceScore); err != nil {
		return nil, err
	}

	e := &domain.Extraction{
		ID:              uuid.New(),
		DocumentID:      input.DocumentID,
		JobID:           input.JobID,
		Method:          input.Method,
		StructuredData:  input.StructuredData,
		ConfidenceScore: input.ConfidenceScore,
		ExtractedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldExtractionID: e.ID,
		logger.FieldDocumentID:   e.DocumentID,
	}).Info("extractionService.RecordExtraction: extraction stored")
	return e, nil
}

func (s *extractionService) GetExtraction(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	return s.repo.GetByID(ctx, id)
}
