package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

// JobMutation changes a locked job in memory. A non-nil ExtractionError is
// inserted into the error ledger in the same transaction as the job update.
type JobMutation func(job *domain.ExtractionJob) (*domain.ExtractionError, error)

// JobRepository defines the contract for extraction job persistence.
// Jobs are never deleted; every status change goes through Mutate.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ExtractionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionJob, error)
	// ListFailedWithoutError returns failed jobs that have no error ledger row.
	ListFailedWithoutError(ctx context.Context) ([]domain.ExtractionJob, error)
	// Mutate locks the job row, applies fn and persists the result atomically.
	// If fn returns an error nothing is written.
	Mutate(ctx context.Context, id uuid.UUID, fn JobMutation) (*domain.ExtractionJob, error)
}

// ErrorRepository defines the contract for the extraction error ledger.
type ErrorRepository interface {
	Create(ctx context.Context, e *domain.ExtractionError) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionError, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]domain.ExtractionError, error)
}

// ExtractionRepository defines the contract for original extraction output.
type ExtractionRepository interface {
	Create(ctx context.Context, e *domain.Extraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
}

// CorrectionRepository defines the contract for the append-only correction
// ledger. Update and Delete issue the statements so the storage layer can
// reject them; they never succeed.
type CorrectionRepository interface {
	Append(ctx context.Context, c *domain.ExtractionCorrection) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionCorrection, error)
	// ListByExtraction returns the audit trail oldest first.
	ListByExtraction(ctx context.Context, extractionID uuid.UUID) ([]domain.ExtractionCorrection, error)
	Update(ctx context.Context, c *domain.ExtractionCorrection) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EffectiveValueRepository reads the effective-value view.
type EffectiveValueRepository interface {
	GetByExtraction(ctx context.Context, extractionID uuid.UUID) (*domain.EffectiveValue, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.EffectiveValue, error)
}
