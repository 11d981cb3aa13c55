package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

// CreateJobInput is the DTO for queueing an extraction job.
type CreateJobInput struct {
	DocumentID uuid.UUID               `json:"document_id"`
	Method     domain.ExtractionMethod `json:"method"`
	// SLAClass defaults to the method's usual tier when empty.
	SLAClass domain.SLAClass `json:"sla_class"`
	// MaxRetries defaults to the configured budget when nil.
	MaxRetries *int `json:"max_retries"`
}

// FailJobInput is the DTO for failing a job with a classified reason.
type FailJobInput struct {
	ErrorCode domain.ErrorCode `json:"error_code"`
	Detail    string           `json:"detail"`
	// RequiresHuman defaults to the error code's classification when nil.
	RequiresHuman *bool `json:"requires_human"`
}

// JobService owns the extraction job ledger. Every status change runs in a
// transaction holding the job row.
type JobService interface {
	CreateJob(ctx context.Context, input CreateJobInput) (*domain.ExtractionJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error)
	ListJobsByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionJob, error)
	TransitionJob(ctx context.Context, id uuid.UUID, to domain.JobStatus) (*domain.ExtractionJob, error)
	ClaimJob(ctx context.Context, id uuid.UUID, workerID string) (*domain.ExtractionJob, error)
	FailJob(ctx context.Context, id uuid.UUID, input FailJobInput) (*domain.ExtractionJob, error)
	RetryJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error)
}

type jobService struct {
	repo              port.JobRepository
	defaultMaxRetries int
	now               func() time.Time
}

// NewJobService creates a new JobService implementation.
func NewJobService(repo port.JobRepository, defaultMaxRetries int) JobService {
	return &jobService{repo: repo, defaultMaxRetries: defaultMaxRetries, now: time.Now}
}

func (s *jobService) CreateJob(ctx context.Context, input CreateJobInput) (*domain.ExtractionJob, error) {
	if input.DocumentID == uuid.Nil {
		return nil, domain.ErrMissingDocumentID
	}
	if !input.Method.Valid() {
		return nil, domain.ErrInvalidMethod
	}
	sla := input.SLAClass
	if sla == "" {
		sla = input.Method.DefaultSLAClass()
	}
	if !sla.Valid() {
		return nil, domain.ErrInvalidSLAClass
	}
	maxRetries := s.defaultMaxRetries
	if input.MaxRetries != nil {
		maxRetries = *input.MaxRetries
	}
	if maxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0, got %d", maxRetries)
	}

	job := &domain.ExtractionJob{
		ID:         uuid.New(),
		DocumentID: input.DocumentID,
		Status:     domain.JobStatusPending,
		Method:     input.Method,
		SLAClass:   sla,
		QueuedAt:   s.now().UTC(),
		MaxRetries: maxRetries,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	jobLogger(ctx, job.ID).WithFields(logger.Fields{
		logger.FieldDocumentID: job.DocumentID,
		"method":               job.Method,
		"sla_class":            job.SLAClass,
	}).Info("jobService.CreateJob: job queued")
	return job, nil
}

func (s *jobService) GetJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *jobService) ListJobsByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.ExtractionJob, error) {
	return s.repo.ListByDocument(ctx, documentID)
}

func (s *jobService) TransitionJob(ctx context.Context, id uuid.UUID, to domain.JobStatus) (*domain.ExtractionJob, error) {
	if !to.Valid() {
		return nil, domain.ErrInvalidJobStatus
	}

	var from domain.JobStatus
	job, err := s.repo.Mutate(ctx, id, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		from = j.Status
		return nil, j.Transition(to, s.now())
	})
	if err != nil {
		s.logRejected(ctx, "TransitionJob", id, err)
		return nil, err
	}
	logTransition(ctx, "TransitionJob", job, from)
	return job, nil
}

// ClaimJob moves a pending job to processing on behalf of workerID. Losing a
// race to another claimant yields ErrJobClaimConflict or a TransitionViolation.
func (s *jobService) ClaimJob(ctx context.Context, id uuid.UUID, workerID string) (*domain.ExtractionJob, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, domain.ErrMissingWorkerID
	}

	job, err := s.repo.Mutate(ctx, id, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		if j.Status == domain.JobStatusProcessing {
			return nil, domain.ErrJobClaimConflict
		}
		if err := j.Transition(domain.JobStatusProcessing, s.now()); err != nil {
			return nil, err
		}
		j.WorkerID = &workerID
		return nil, nil
	})
	if err != nil {
		s.logRejected(ctx, "ClaimJob", id, err)
		return nil, err
	}
	logTransition(logger.WithField(ctx, logger.FieldWorkerID, workerID), "ClaimJob", job, domain.JobStatusPending)
	return job, nil
}

// FailJob moves the job to failed, records the reason in the error ledger and
// sets error_message, all in one transaction.
func (s *jobService) FailJob(ctx context.Context, id uuid.UUID, input FailJobInput) (*domain.ExtractionJob, error) {
	if !input.ErrorCode.Valid() {
		return nil, domain.ErrInvalidErrorCode
	}
	detail := strings.TrimSpace(input.Detail)
	if detail == "" {
		return nil, domain.ErrMissingErrorDetail
	}
	requiresHuman := input.ErrorCode.RequiresHumanByDefault()
	if input.RequiresHuman != nil {
		requiresHuman = *input.RequiresHuman
	}

	var from domain.JobStatus
	job, err := s.repo.Mutate(ctx, id, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		from = j.Status
		if j.Status == domain.JobStatusFailed {
			return nil, violation(j, domain.JobStatusFailed)
		}
		now := s.now()
		if err := j.Transition(domain.JobStatusFailed, now); err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("%s: %s", input.ErrorCode, detail)
		j.ErrorMessage = &msg
		jobID := j.ID
		return &domain.ExtractionError{
			ID:                  uuid.New(),
			DocumentID:          j.DocumentID,
			JobID:               &jobID,
			ErrorCode:           input.ErrorCode,
			ErrorDetail:         detail,
			RequiresHumanReview: requiresHuman,
			CreatedAt:           now.UTC(),
		}, nil
	})
	if err != nil {
		s.logRejected(ctx, "FailJob", id, err)
		return nil, err
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldErrorCode: input.ErrorCode,
		"requires_human":      requiresHuman,
	})
	logTransition(ctx, "FailJob", job, from)
	return job, nil
}

// RetryJob sends a failed job back to pending and consumes one retry.
func (s *jobService) RetryJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	job, err := s.repo.Mutate(ctx, id, func(j *domain.ExtractionJob) (*domain.ExtractionError, error) {
		if j.Status != domain.JobStatusFailed {
			return nil, violation(j, domain.JobStatusPending)
		}
		if !j.RetriesLeft() {
			return nil, domain.ErrRetryLimitReached
		}
		if err := j.Transition(domain.JobStatusPending, s.now()); err != nil {
			return nil, err
		}
		j.RetryCount++
		j.WorkerID = nil
		j.ErrorMessage = nil
		return nil, nil
	})
	if err != nil {
		s.logRejected(ctx, "RetryJob", id, err)
		return nil, err
	}
	logTransition(logger.WithField(ctx, "retry_count", job.RetryCount), "RetryJob", job, domain.JobStatusFailed)
	return job, nil
}

func (s *jobService) logRejected(ctx context.Context, op string, id uuid.UUID, err error) {
	l := jobLogger(ctx, id).WithError(err)
	switch {
	case errors.Is(err, domain.ErrTransitionViolation),
		errors.Is(err, domain.ErrJobClaimConflict),
		errors.Is(err, domain.ErrRetryLimitReached),
		errors.Is(err, domain.ErrImmutableField):
		l.Warnf("jobService.%s: rejected", op)
	case errors.Is(err, domain.ErrJobNotFound):
		l.Debugf("jobService.%s: job not found", op)
	default:
		l.Errorf("jobService.%s: failed", op)
	}
}

// violation reports a move the operation does not permit from j's status,
// including same-status moves the state machine would otherwise pass through.
func violation(j *domain.ExtractionJob, to domain.JobStatus) *domain.TransitionViolation {
	return &domain.TransitionViolation{
		JobID:   j.ID,
		From:    j.Status,
		To:      to,
		Allowed: domain.AllowedTransitions(j.Status),
	}
}

func jobLogger(ctx context.Context, id uuid.UUID) *logger.Logger {
	return logger.FromContext(ctx).WithField(logger.FieldJobID, id)
}

func logTransition(ctx context.Context, op string, job *domain.ExtractionJob, from domain.JobStatus) {
	fields := logger.Fields{
		logger.FieldFromStatus: from,
		logger.FieldStatus:     job.Status,
	}
	if job.DurationMs != nil {
		fields[logger.FieldDurationMs] = *job.DurationMs
	}
	if job.IsTerminal() {
		fields[logger.FieldTerminal] = true
	}
	jobLogger(ctx, job.ID).WithFields(fields).Infof("jobService.%s: %s -> %s", op, from, job.Status)
}
