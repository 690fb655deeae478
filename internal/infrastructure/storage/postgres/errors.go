package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"tillbook/internal/core/apperror"
)

// Postgres error codes the repositories care about.
const (
	pgUniqueViolation  = "23505"
	pgQueryCanceled    = "57014" // statement_timeout
	pgLockNotAvailable = "55P03" // lock_timeout on FOR UPDATE
)

// WrapError wraps a driver failure as a retryable storage error, keeping
// unique-violation conflicts distinct so idempotent append races surface as
// Conflict instead of StorageUnavailable, and lock/statement timeouts as
// Timeout so callers know the aggregate was busy.
func WrapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewConflict(fmt.Sprintf("%s: duplicate key", op)).WithCause(err)
		case pgQueryCanceled, pgLockNotAvailable:
			return apperror.NewTimeout(fmt.Sprintf("%s: lock wait", op)).WithCause(err)
		}
	}
	return apperror.NewStorage(fmt.Errorf("%s: %w", op, err))
}

func storageErr(op string, err error) error { return WrapError(op, err) }
