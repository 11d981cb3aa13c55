package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

const extractionColumns = `id, document_id, job_id, method, structured_data, confidence_score, extracted_at`

type extractionRepo struct {
	db *sqlx.DB
}

// NewExtractionRepo creates a new ExtractionRepository.
func NewExtractionRepo(db *sqlx.DB) port.ExtractionRepository {
	return &extractionRepo{db: db}
}

func (r *extractionRepo) Create(ctx context.Context, e *domain.Extraction) error {
	if e.ExtractedAt.IsZero() {
		e.ExtractedAt = time.Now()
	}
	e.ExtractedAt = e.ExtractedAt.UTC()
	query := r.db.Rebind(`INSERT INTO extractions (` + extractionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.DocumentID, e.JobID, e.Method, []byte(e.StructuredData), e.ConfidenceScore, e.ExtractedAt)
	if err != nil {
		err = translateError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrJobNotFound
		}
		return fmt.Errorf("extractionRepo.Create: %w", err)
	}
	return nil
}

func (r *extractionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	var e domain.Extraction
	query := r.db.Rebind(`SELECT ` + extractionColumns + ` FROM extractions WHERE id = ?`)
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExtractionNotFound
		}
		return nil, fmt.Errorf("extractionRepo.GetByID: %w", err)
	}
	return &e, nil
}
