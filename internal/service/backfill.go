package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

const backfillDefaultDetail = "job failed without a recorded reason"

// BackfillResult summarizes one backfill run.
type BackfillResult struct {
	Scanned  int
	Recorded int
	Skipped  int
}

// BackfillJobErrors records a PARSE_ERROR error ledger row for every failed
// job that has none, using the job's error_message as the detail. A job whose
// row cannot be written is logged and skipped; the run continues.
func BackfillJobErrors(ctx context.Context, jobs port.JobRepository, errs ErrorService) (*BackfillResult, error) {
	start := time.Now()

	failed, err := jobs.ListFailedWithoutError(ctx)
	if err != nil {
		return nil, fmt.Errorf("BackfillJobErrors: %w", err)
	}

	res := &BackfillResult{Scanned: len(failed)}
	for i := range failed {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		job := &failed[i]

		detail := backfillDefaultDetail
		if job.ErrorMessage != nil && strings.TrimSpace(*job.ErrorMessage) != "" {
			detail = *job.ErrorMessage
		}
		jobID := job.ID

		_, err := errs.RecordError(ctx, RecordErrorInput{
			DocumentID: job.DocumentID,
			JobID:      &jobID,
			ErrorCode:  domain.ErrorCodeParseError,
			Detail:     detail,
		})
		if err != nil {
			jobLogger(ctx, job.ID).WithError(err).Warn("BackfillJobErrors: skipping job")
			res.Skipped++
			continue
		}
		res.Recorded++
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldCount:      res.Recorded,
		"skipped":              res.Skipped,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("BackfillJobErrors: complete")
	return res, nil
}
