package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// executor resolves the per-call DBTX for reads: an open transaction when
// one is passed, the read pool otherwise.
func (db *DBExecutor) executor(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return db.Replica()
}

// writer resolves the per-call DBTX for writes: an open transaction when one
// is passed, the primary pool otherwise. Writes must never land on a replica.
func (db *DBExecutor) writer(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return db.Primary()
}

// classifyDBError maps a pgx-level failure onto the domain taxonomy.
// Connectivity and timeout failures are retryable; constraint violations and
// bad input are not. Callers branch on the resulting code and flag, never on
// error text.
func classifyDBError(kind domain.ErrorKind, op string, err error) *domain.PaymentError {
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.PaymentError{
			Kind: kind, Code: domain.ErrorCodeNotFound,
			Message: op + ": no matching row", Retryable: false, Err: err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return &domain.PaymentError{
				Kind: kind, Code: domain.ErrorCodeAlreadyExists,
				Message: op + ": duplicate row", Retryable: false, Err: err,
			}
		case pgErr.Code[:2] == "23" || pgErr.Code[:2] == "22": // integrity / data
			return &domain.PaymentError{
				Kind: kind, Code: domain.ErrorCodeInvalidData,
				Message: op + ": invalid data", Retryable: false, Err: err,
			}
		case pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57": // connection / operator intervention
			return &domain.PaymentError{
				Kind: kind, Code: domain.ErrorCodeDBError,
				Message: op + ": connection failure", Retryable: true, Err: err,
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.PaymentError{
			Kind: kind, Code: domain.ErrorCodeDBError,
			Message: op + ": timed out", Retryable: true, Err: err,
		}
	}

	return &domain.PaymentError{
		Kind: kind, Code: domain.ErrorCodeDBError,
		Message: op + ": database error", Retryable: true, Err: err,
	}
}
