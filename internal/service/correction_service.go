package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

// AppendCorrectionInput is the DTO for adding a human correction.
type AppendCorrectionInput struct {
	ExtractionID       uuid.UUID       `json:"extraction_id"`
	StructuredData     json.RawMessage `json:"structured_data"`
	ConfidenceOverride *float64        `json:"confidence_override"`
	Reason             *string         `json:"reason"`
	CorrectedBy        string          `json:"corrected_by"`
}

// CorrectionService owns the append-only correction ledger. Corrections are
// only ever added; UpdateCorrection and DeleteCorrection always fail.
type CorrectionService interface {
	AppendCorrection(ctx context.Context, input AppendCorrectionInput) (*domain.ExtractionCorrection, error)
	ListCorrections(ctx context.Context, extractionID uuid.UUID) ([]domain.ExtractionCorrection, error)
	UpdateCorrection(ctx context.Context, id uuid.UUID) error
	DeleteCorrection(ctx context.Context, id uuid.UUID) error
}

type correctionService struct {
	repo port.CorrectionRepository
}

// NewCorrectionService creates a new CorrectionService implementation.
func NewCorrectionService(repo port.CorrectionRepository) CorrectionService {
	return &correctionService{repo: repo}
}

func (s *correctionService) AppendCorrection(ctx context.Context, input AppendCorrectionInput) (*domain.ExtractionCorrection, error) {
	if input.ExtractionID == uuid.Nil {
		return nil, domain.ErrExtractionNotFound
	}
	if err := domain.ValidateStructuredData(input.StructuredData); err != nil {
		return nil, err
	}
	if err := domain.ValidateConfidence(input.ConfidenceOverride); err != nil {
		return nil, err
	}
	correctedBy := strings.TrimSpace(input.CorrectedBy)
	if correctedBy == "" {
		return nil, domain.ErrMissingCorrectedBy
	}

	// V7 ids sort by creation time, so (corrected_at, id) follows insertion
	// order even when two corrections share a timestamp.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("correctionService.AppendCorrection: %w", err)
	}
	c := &domain.ExtractionCorrection{
		ID:                 id,
		ExtractionID:       input.ExtractionID,
		StructuredData:     input.StructuredData,
		ConfidenceOverride: input.ConfidenceOverride,
		CorrectionReason:   input.Reason,
		CorrectedBy:        correctedBy,
		CorrectedAt:        time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, c); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldCorrectionID: c.ID,
		logger.FieldExtractionID: c.ExtractionID,
		"corrected_by":           c.CorrectedBy,
	}).Info("correctionService.AppendCorrection: correction appended")
	return c, nil
}

func (s *correctionService) ListCorrections(ctx context.Context, extractionID uuid.UUID) ([]domain.ExtractionCorrection, error) {
	return s.repo.ListByExtraction(ctx, extractionID)
}

func (s *correctionService) UpdateCorrection(ctx context.Context, id uuid.UUID) error {
	return s.reject(ctx, "UPDATE", id)
}

func (s *correctionService) DeleteCorrection(ctx context.Context, id uuid.UUID) error {
	return s.reject(ctx, "DELETE", id)
}

func (s *correctionService) reject(ctx context.Context, op string, id uuid.UUID) error {
	err := domain.NewCorrectionAppendOnlyViolation(op, id)
	logger.FromContext(ctx).WithField(logger.FieldCorrectionID, id).WithError(err).
		Warn("correctionService: mutation of append-only ledger rejected")
	return err
}
