package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractionJob is one extraction attempt for a document. Status changes go
// through Transition; everything else except the counters is fixed at creation.
type ExtractionJob struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	DocumentID   uuid.UUID        `db:"document_id" json:"document_id"`
	Status       JobStatus        `db:"status" json:"status"`
	Method       ExtractionMethod `db:"method" json:"method"`
	SLAClass     SLAClass         `db:"sla_class" json:"sla_class"`
	QueuedAt     time.Time        `db:"queued_at" json:"queued_at"`
	StartedAt    *time.Time       `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time       `db:"completed_at" json:"completed_at"`
	DurationMs   *int64           `db:"duration_ms" json:"duration_ms"`
	WorkerID     *string          `db:"worker_id" json:"worker_id"`
	RetryCount   int              `db:"retry_count" json:"retry_count"`
	MaxRetries   int              `db:"max_retries" json:"max_retries"`
	ErrorMessage *string          `db:"error_message" json:"error_message"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// ExtractionError is a classified failure reason for a document, optionally
// tied to the job that produced it.
type ExtractionError struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	DocumentID          uuid.UUID  `db:"document_id" json:"document_id"`
	JobID               *uuid.UUID `db:"job_id" json:"job_id"`
	ErrorCode           ErrorCode  `db:"error_code" json:"error_code"`
	ErrorDetail         string     `db:"error_detail" json:"error_detail"`
	RequiresHumanReview bool       `db:"requires_human_review" json:"requires_human_review"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// Extraction is the structured content produced by an extraction job.
type Extraction struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	DocumentID      uuid.UUID        `db:"document_id" json:"document_id"`
	JobID           *uuid.UUID       `db:"job_id" json:"job_id"`
	Method          ExtractionMethod `db:"method" json:"method"`
	StructuredData  json.RawMessage  `db:"structured_data" json:"structured_data"`
	ConfidenceScore *float64         `db:"confidence_score" json:"confidence_score"`
	ExtractedAt     time.Time        `db:"extracted_at" json:"extracted_at"`
}

// ExtractionCorrection is a human correction of an extraction. Rows are
// append-only (INV-6): they are never updated or deleted once stored.
type ExtractionCorrection struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	ExtractionID       uuid.UUID       `db:"extraction_id" json:"extraction_id"`
	StructuredData     json.RawMessage `db:"structured_data" json:"structured_data"`
	ConfidenceOverride *float64        `db:"confidence_override" json:"confidence_override"`
	CorrectionReason   *string         `db:"correction_reason" json:"correction_reason"`
	CorrectedBy        string          `db:"corrected_by" json:"corrected_by"`
	CorrectedAt        time.Time       `db:"corrected_at" json:"corrected_at"`
}

// EffectiveValue is the authoritative view of an extraction: the latest
// correction overlaid on the original output. It is computed on every read.
type EffectiveValue struct {
	ExtractionID     uuid.UUID        `db:"extraction_id" json:"extraction_id"`
	DocumentID       uuid.UUID        `db:"document_id" json:"document_id"`
	JobID            *uuid.UUID       `db:"job_id" json:"job_id"`
	Method           ExtractionMethod `db:"method" json:"method"`
	ExtractedAt      time.Time        `db:"extracted_at" json:"extracted_at"`
	StructuredData   json.RawMessage  `db:"structured_data" json:"structured_data"`
	ConfidenceScore  *float64         `db:"confidence_score" json:"confidence_score"`
	CorrectionID     *uuid.UUID       `db:"correction_id" json:"correction_id,omitempty"`
	CorrectedAt      *time.Time       `db:"corrected_at" json:"corrected_at,omitempty"`
	CorrectedBy      *string          `db:"corrected_by" json:"corrected_by,omitempty"`
	CorrectionReason *string          `db:"correction_reason" json:"correction_reason,omitempty"`
	CorrectionCount  int              `db:"correction_count" json:"correction_count"`
}

// IsCorrected reports whether a human correction overrides the original output.
func (v *EffectiveValue) IsCorrected() bool {
	return v.CorrectionID != nil
}

// SLAReportRow aggregates completed-job timing for one SLA class and method.
type SLAReportRow struct {
	SLAClass      SLAClass         `db:"sla_class" json:"sla_class"`
	Method        ExtractionMethod `db:"method" json:"method"`
	Total         int              `db:"total" json:"total"`
	Done          int              `db:"done" json:"done"`
	Failed        int              `db:"failed" json:"failed"`
	AvgDurationMs *float64         `db:"avg_duration_ms" json:"avg_duration_ms"`
	MaxDurationMs *int64           `db:"max_duration_ms" json:"max_duration_ms"`
}
