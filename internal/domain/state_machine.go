package domain

import "time"

// allowedTransitions is the job lifecycle graph. done is terminal; failed
// may only go back to pending for a retry.
var allowedTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusProcessing, JobStatusFailed},
	JobStatusProcessing: {JobStatusDone, JobStatusFailed},
	JobStatusDone:       {},
	JobStatusFailed:     {JobStatusPending},
}

// AllowedTransitions returns the statuses reachable from from in one step.
func AllowedTransitions(from JobStatus) []JobStatus {
	next := allowedTransitions[from]
	out := make([]JobStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether a write changing status from -> to is legal.
// Writes that keep the status unchanged are always legal.
func CanTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the job to status to, stamping timing fields as of now.
// On error the job is left untouched.
//
// Entering processing sets StartedAt. Entering done or failed sets
// CompletedAt and, when the attempt was started, DurationMs. A retry
// (failed -> pending) clears the previous attempt's timing.
func (j *ExtractionJob) Transition(to JobStatus, now time.Time) error {
	if !to.Valid() {
		return ErrInvalidJobStatus
	}
	if j.Status == to {
		return nil
	}
	if !CanTransition(j.Status, to) {
		return &TransitionViolation{
			JobID:   j.ID,
			From:    j.Status,
			To:      to,
			Allowed: AllowedTransitions(j.Status),
		}
	}

	now = now.UTC()
	switch to {
	case JobStatusProcessing:
		j.StartedAt = &now
	case JobStatusDone, JobStatusFailed:
		j.CompletedAt = &now
		if j.StartedAt != nil {
			d := now.Sub(*j.StartedAt).Milliseconds()
			j.DurationMs = &d
		}
	case JobStatusPending:
		j.StartedAt = nil
		j.CompletedAt = nil
		j.DurationMs = nil
	}
	j.Status = to
	j.UpdatedAt = now
	return nil
}

// IsTerminal reports whether the job can never change status again.
func (j *ExtractionJob) IsTerminal() bool {
	return len(allowedTransitions[j.Status]) == 0
}

// RetriesLeft reports whether another failed -> pending retry is permitted.
func (j *ExtractionJob) RetriesLeft() bool {
	return j.RetryCount < j.MaxRetries
}
