package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound              = errors.New("resource not found")
	ErrJobNotFound           = errors.New("extraction job not found")
	ErrExtractionNotFound    = errors.New("extraction not found")
	ErrCorrectionNotFound    = errors.New("extraction correction not found")
	ErrInvalidJobStatus      = errors.New("invalid extraction job status")
	ErrInvalidMethod         = errors.New("invalid extraction method")
	ErrInvalidSLAClass       = errors.New("invalid SLA class")
	ErrInvalidErrorCode      = errors.New("invalid extraction error code")
	ErrInvalidStructuredData = errors.New("structured data must be a JSON object")
	ErrInvalidConfidence     = errors.New("confidence must be between 0 and 1")
	ErrMissingCorrectedBy    = errors.New("corrected_by is required")
	ErrMissingErrorDetail    = errors.New("error detail is required")
	ErrMissingDocumentID     = errors.New("document id is required")
	ErrMissingWorkerID       = errors.New("worker id is required")
	ErrImmutableField        = errors.New("extraction job field is immutable after creation")
	ErrJobClaimConflict      = errors.New("extraction job was claimed concurrently")
	ErrRetryLimitReached     = errors.New("extraction job has no retries left")

	// ErrTransitionViolation is matched by every *TransitionViolation.
	ErrTransitionViolation = errors.New("extraction job status transition not allowed")
	// ErrAppendOnlyViolation is matched by every *AppendOnlyViolation.
	ErrAppendOnlyViolation = errors.New("append-only ledger cannot be modified")
)

// InvariantAppendOnlyCorrections identifies the correction ledger's append-only rule.
const InvariantAppendOnlyCorrections = "INV-6"

// TransitionViolation reports an attempted status change outside the allowed graph.
type TransitionViolation struct {
	JobID   uuid.UUID
	From    JobStatus
	To      JobStatus
	Allowed []JobStatus
}

func (e *TransitionViolation) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("extraction job %s: transition %s -> %s not allowed (allowed: [%s])",
		e.JobID, e.From, e.To, strings.Join(allowed, ", "))
}

// Unwrap lets errors.Is match ErrTransitionViolation.
func (e *TransitionViolation) Unwrap() error {
	return ErrTransitionViolation
}

// AppendOnlyViolation reports an update or delete attempt against an append-only ledger.
type AppendOnlyViolation struct {
	Invariant string
	Op        string
	Table     string
	RowID     uuid.UUID
}

// NewCorrectionAppendOnlyViolation builds the violation raised for the correction ledger.
func NewCorrectionAppendOnlyViolation(op string, rowID uuid.UUID) *AppendOnlyViolation {
	return &AppendOnlyViolation{
		Invariant: InvariantAppendOnlyCorrections,
		Op:        op,
		Table:     "extraction_corrections",
		RowID:     rowID,
	}
}

func (e *AppendOnlyViolation) Error() string {
	msg := fmt.Sprintf("%s: %s on %s rejected, table is append-only", e.Invariant, e.Op, e.Table)
	if e.RowID != uuid.Nil {
		msg += fmt.Sprintf(" (row %s)", e.RowID)
	}
	return msg
}

// Unwrap lets errors.Is match ErrAppendOnlyViolation.
func (e *AppendOnlyViolation) Unwrap() error {
	return ErrAppendOnlyViolation
}
