package port

import (
	"context"
	"time"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

// ReportRepository provides aggregation queries over the job ledger.
type ReportRepository interface {
	// SLAReport groups jobs queued at or after since by SLA class and method.
	SLAReport(ctx context.Context, since time.Time) ([]domain.SLAReportRow, error)
}
