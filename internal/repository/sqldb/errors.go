package sqldb

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

// SQLSTATEs raised by the trigger functions in the PostgreSQL migrations.
const (
	sqlStateTransitionViolation = "XL001"
	sqlStateImmutableField      = "XL002"
	sqlStateAppendOnly          = "XL006"

	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// Message prefixes raised by the SQLite triggers.
const (
	sqliteTransitionViolation = "TRANSITION_VIOLATION"
	sqliteImmutableField      = "IMMUTABLE_FIELD"
	sqliteAppendOnly          = domain.InvariantAppendOnlyCorrections + ":"
	sqliteForeignKey          = "FOREIGN KEY constraint failed"
)

// translateError maps engine errors raised by triggers and constraints to
// domain errors. Errors it does not recognize are returned unchanged.
// Violations carry whatever the engine reports; callers fill in row context.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateTransitionViolation:
			return transitionFromDetail(pgErr.Detail)
		case sqlStateImmutableField:
			return domain.ErrImmutableField
		case sqlStateAppendOnly:
			return domain.NewCorrectionAppendOnlyViolation(pgErr.Detail, uuid.Nil)
		case sqlStateForeignKeyViolation:
			return domain.ErrNotFound
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return domain.ErrJobClaimConflict
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		msg := liteErr.Error()
		switch {
		case strings.Contains(msg, sqliteTransitionViolation):
			return &domain.TransitionViolation{}
		case strings.Contains(msg, sqliteImmutableField):
			return domain.ErrImmutableField
		case strings.Contains(msg, sqliteAppendOnly):
			return domain.NewCorrectionAppendOnlyViolation(appendOnlyOp(msg), uuid.Nil)
		case strings.Contains(msg, sqliteForeignKey):
			return domain.ErrNotFound
		}
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return domain.ErrJobClaimConflict
		}
	}
	return err
}

// transitionFromDetail parses the "from,to,allowed|allowed" detail string.
func transitionFromDetail(detail string) *domain.TransitionViolation {
	v := &domain.TransitionViolation{}
	parts := strings.SplitN(detail, ",", 3)
	if len(parts) != 3 {
		return v
	}
	v.From = domain.JobStatus(parts[0])
	v.To = domain.JobStatus(parts[1])
	if parts[2] != "" {
		for _, s := range strings.Split(parts[2], "|") {
			v.Allowed = append(v.Allowed, domain.JobStatus(s))
		}
	}
	return v
}

// appendOnlyOp extracts the operation from "INV-6: UPDATE on ...".
func appendOnlyOp(msg string) string {
	_, rest, ok := strings.Cut(msg, sqliteAppendOnly)
	if !ok {
		return ""
	}
	op, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
	return op
}
