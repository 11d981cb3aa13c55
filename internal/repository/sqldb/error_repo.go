package sqldb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

const errorColumns = `id, document_id, job_id, error_code, error_detail, requires_human_review, created_at`

type errorRepo struct {
	db *sqlx.DB
}

// NewErrorRepo creates a new ErrorRepository.
func NewErrorRepo(db *sqlx.DB) port.ErrorRepository {
	return &errorRepo{db: db}
}

func (r *errorRepo) Create(ctx context.Context, e *domain.ExtractionError) error {
	if err := insertError(ctx, r.db, e); err != nil {
		return fmt.Errorf("errorRepo.Create: %w", err)
	}
	return nil
}

func (r *errorRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionError, error) {
	var rows []domain.ExtractionError
	query := r.db.Rebind(`SELECT ` + errorColumns + ` FROM extraction_errors
		WHERE document_id = ? ORDER BY created_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &rows, query, documentID); err != nil {
		return nil, fmt.Errorf("errorRepo.ListByDocument: %w", err)
	}
	return rows, nil
}

func (r *errorRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]domain.ExtractionError, error) {
	var rows []domain.ExtractionError
	query := r.db.Rebind(`SELECT ` + errorColumns + ` FROM extraction_errors
		WHERE job_id = ? ORDER BY created_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &rows, query, jobID); err != nil {
		return nil, fmt.Errorf("errorRepo.ListByJob: %w", err)
	}
	return rows, nil
}

// insertError writes one error ledger row using q, which may be a transaction.
func insertError(ctx context.Context, q sqlx.ExtContext, e *domain.ExtractionError) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	query := q.Rebind(`INSERT INTO extraction_errors (` + errorColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query,
		e.ID, e.DocumentID, e.JobID, e.ErrorCode, e.ErrorDetail, e.RequiresHumanReview, e.CreatedAt)
	if err != nil {
		err = translateError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrJobNotFound
		}
		return err
	}
	return nil
}
