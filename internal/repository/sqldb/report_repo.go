package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

type reportRepo struct {
	db *sqlx.DB
}

// NewReportRepo creates a new ReportRepository.
func NewReportRepo(db *sqlx.DB) port.ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) SLAReport(ctx context.Context, since time.Time) ([]domain.SLAReportRow, error) {
	query := r.db.Rebind(`SELECT
			sla_class,
			method,
			COUNT(*)                                           AS total,
			SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END)   AS done,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) AS failed,
			CAST(AVG(duration_ms) AS DOUBLE PRECISION)         AS avg_duration_ms,
			MAX(duration_ms)                                   AS max_duration_ms
		FROM extraction_jobs
		WHERE queued_at >= ?
		GROUP BY sla_class, method
		ORDER BY sla_class, method`)

	var rows []domain.SLAReportRow
	if err := r.db.SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("reportRepo.SLAReport: %w", err)
	}
	return rows, nil
}
