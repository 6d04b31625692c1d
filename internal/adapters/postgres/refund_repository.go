package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/payin-service/internal/converters"
	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// RefundRepository persists refunds in the payment DB.
type RefundRepository struct {
	db *DBExecutor
}

// NewRefundRepository creates a new refund repository
func NewRefundRepository(db *DBExecutor) *RefundRepository {
	return &RefundRepository{db: db}
}

const refundColumns = `id, payment_intent_id, idempotency_key, status, amount, reason,
	created_at, updated_at`

// InsertRefundPair writes the refund and its gateway mirror in one call.
func (r *RefundRepository) InsertRefundPair(ctx context.Context, tx ports.DBTX, refund *models.Refund, pgpRefund *models.PgpRefund) error {
	exec := r.db.writer(tx)

	_, err := exec.Exec(ctx, `
		INSERT INTO refunds (`+refundColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		refund.ID,
		refund.PaymentIntentID,
		refund.IdempotencyKey,
		string(refund.Status),
		refund.Amount,
		converters.ToNullableText(refund.Reason),
		refund.CreatedAt,
		refund.UpdatedAt,
	)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert refund", err)
	}

	_, err = exec.Exec(ctx, `
		INSERT INTO pgp_refunds
			(id, refund_id, idempotency_key, status, pgp_code, pgp_resource_id,
			 amount, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pgpRefund.ID,
		pgpRefund.RefundID,
		pgpRefund.IdempotencyKey,
		string(pgpRefund.Status),
		string(pgpRefund.PgpCode),
		converters.ToNullableText(pgpRefund.PgpResourceID),
		pgpRefund.Amount,
		converters.ToNullableText(pgpRefund.Reason),
		pgpRefund.CreatedAt,
		pgpRefund.UpdatedAt,
	)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert pgp refund", err)
	}
	return nil
}

// GetByIdempotencyKey retrieves a refund by its derived operation key.
func (r *RefundRepository) GetByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*models.Refund, error) {
	row := r.db.executor(db).QueryRow(ctx, `
		SELECT `+refundColumns+` FROM refunds WHERE idempotency_key = $1`, key)
	return scanRefund(row)
}

// ListByIntentID lists all refunds against an intent, oldest first.
func (r *RefundRepository) ListByIntentID(ctx context.Context, db ports.DBTX, intentID uuid.UUID) ([]*models.Refund, error) {
	rows, err := r.db.executor(db).Query(ctx, `
		SELECT `+refundColumns+` FROM refunds
		WHERE payment_intent_id = $1 ORDER BY created_at ASC`, intentID)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "list refunds", err)
	}
	defer rows.Close()

	var out []*models.Refund
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, refund)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(domain.KindReadError, "list refunds", err)
	}
	return out, nil
}

// UpdateStatus moves a refund out of PROCESSING and mirrors the transition
// onto its pgp row, stamping the gateway resource id when one was issued.
func (r *RefundRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, refundID uuid.UUID, to models.RefundStatus, pgpResourceID *string) (*models.Refund, error) {
	exec := r.db.writer(tx)

	row := exec.QueryRow(ctx, `
		UPDATE refunds SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+refundColumns, refundID, string(to))
	refund, err := scanRefund(row)
	if err != nil {
		return nil, err
	}

	_, err = exec.Exec(ctx, `
		UPDATE pgp_refunds
		SET status = $2,
		    pgp_resource_id = COALESCE($3, pgp_resource_id),
		    updated_at = now()
		WHERE refund_id = $1`,
		refundID, string(to), converters.ToNullableText(pgpResourceID))
	if err != nil {
		return nil, classifyDBError(domain.KindUpdateError, "update pgp refund", err)
	}
	return refund, nil
}

func scanRefund(row pgx.Row) (*models.Refund, error) {
	var ref models.Refund
	var status string
	var reason pgtype.Text

	err := row.Scan(
		&ref.ID,
		&ref.PaymentIntentID,
		&ref.IdempotencyKey,
		&status,
		&ref.Amount,
		&reason,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan refund", err)
	}

	ref.Status = models.RefundStatus(status)
	ref.Reason = converters.FromNullableText(reason)
	return &ref, nil
}
