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

const correctionColumns = `id, extraction_id, structured_data, confidence_override,
	correction_reason, corrected_by, corrected_at`

type correctionRepo struct {
	db *sqlx.DB
}

// NewCorrectionRepo creates a new CorrectionRepository.
func NewCorrectionRepo(db *sqlx.DB) port.CorrectionRepository {
	return &correctionRepo{db: db}
}

func (r *correctionRepo) Append(ctx context.Context, c *domain.ExtractionCorrection) error {
	if c.CorrectedAt.IsZero() {
		c.CorrectedAt = time.Now()
	}
	// SQLite compares DATETIME text, so every stored time must be UTC.
	c.CorrectedAt = c.CorrectedAt.UTC()
	query := r.db.Rebind(`INSERT INTO extraction_corrections (` + correctionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ExtractionID, []byte(c.StructuredData), c.ConfidenceOverride,
		c.CorrectionReason, c.CorrectedBy, c.CorrectedAt)
	if err != nil {
		err = translateError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrExtractionNotFound
		}
		return fmt.Errorf("correctionRepo.Append: %w", err)
	}
	return nil
}

func (r *correctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionCorrection, error) {
	var c domain.ExtractionCorrection
	query := r.db.Rebind(`SELECT ` + correctionColumns + ` FROM extraction_corrections WHERE id = ?`)
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCorrectionNotFound
		}
		return nil, fmt.Errorf("correctionRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *correctionRepo) ListByExtraction(ctx context.Context, extractionID uuid.UUID) ([]domain.ExtractionCorrection, error) {
	var rows []domain.ExtractionCorrection
	query := r.db.Rebind(`SELECT ` + correctionColumns + ` FROM extraction_corrections
		WHERE extraction_id = ? ORDER BY corrected_at, id`)
	if err := r.db.SelectContext(ctx, &rows, query, extractionID); err != nil {
		return nil, fmt.Errorf("correctionRepo.ListByExtraction: %w", err)
	}
	return rows, nil
}

// Update issues an UPDATE against the ledger. The storage triggers reject it.
func (r *correctionRepo) Update(ctx context.Context, c *domain.ExtractionCorrection) error {
	query := r.db.Rebind(`UPDATE extraction_corrections SET
		structured_data = ?, confidence_override = ?, correction_reason = ?,
		corrected_by = ?, corrected_at = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		[]byte(c.StructuredData), c.ConfidenceOverride, c.CorrectionReason,
		c.CorrectedBy, c.CorrectedAt, c.ID)
	return r.rejected("Update", c.ID, res, err)
}

// Delete issues a DELETE against the ledger. The storage triggers reject it.
func (r *correctionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM extraction_corrections WHERE id = ?`), id)
	return r.rejected("Delete", id, res, err)
}

func (r *correctionRepo) rejected(method string, id uuid.UUID, res sql.Result, err error) error {
	if err != nil {
		err = translateError(err)
		var v *domain.AppendOnlyViolation
		if errors.As(err, &v) {
			v.RowID = id
		}
		return fmt.Errorf("correctionRepo.%s: %w", method, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("correctionRepo.%s: %w", method, err)
	}
	if n == 0 {
		return domain.ErrCorrectionNotFound
	}
	return fmt.Errorf("correctionRepo.%s: %d row(s) changed, append-only trigger missing", method, n)
}
