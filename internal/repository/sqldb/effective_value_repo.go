package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

const effectiveValueColumns = `extraction_id, document_id, job_id, method, extracted_at,
	structured_data, confidence_score, correction_id, corrected_at, corrected_by,
	correction_reason, correction_count`

type effectiveValueRepo struct {
	db *sqlx.DB
}

// NewEffectiveValueRepo creates a new EffectiveValueRepository over the
// extraction_effective_values view.
func NewEffectiveValueRepo(db *sqlx.DB) port.EffectiveValueRepository {
	return &effectiveValueRepo{db: db}
}

func (r *effectiveValueRepo) GetByExtraction(ctx context.Context, extractionID uuid.UUID) (*domain.EffectiveValue, error) {
	var v domain.EffectiveValue
	query := r.db.Rebind(`SELECT ` + effectiveValueColumns + ` FROM extraction_effective_values
		WHERE extraction_id = ?`)
	if err := r.db.GetContext(ctx, &v, query, extractionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExtractionNotFound
		}
		return nil, fmt.Errorf("effectiveValueRepo.GetByExtraction: %w", err)
	}
	return &v, nil
}

func (r *effectiveValueRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.EffectiveValue, error) {
	var rows []domain.EffectiveValue
	query := r.db.Rebind(`SELECT ` + effectiveValueColumns + ` FROM extraction_effective_values
		WHERE document_id = ? ORDER BY extracted_at, extraction_id`)
	if err := r.db.SelectContext(ctx, &rows, query, documentID); err != nil {
		return nil, fmt.Errorf("effectiveValueRepo.ListByDocument: %w", err)
	}
	return rows, nil
}
