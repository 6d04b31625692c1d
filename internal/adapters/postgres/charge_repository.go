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

// ChargeRepository persists captured charges in the payment DB.
type ChargeRepository struct {
	db *DBExecutor
}

// NewChargeRepository creates a new charge repository
func NewChargeRepository(db *DBExecutor) *ChargeRepository {
	return &ChargeRepository{db: db}
}

const chargeColumns = `id, payment_intent_id, pgp_code, idempotency_key, status, currency,
	amount, amount_refunded, application_fee_amount, payout_account_id,
	created_at, updated_at, captured_at, cancelled_at`

// InsertChargePair writes the charge and its gateway mirror. Callers wrap it
// in the capture transaction so both rows land with the intent transition.
func (r *ChargeRepository) InsertChargePair(ctx context.Context, tx ports.DBTX, charge *models.PaymentCharge, pgpCharge *models.PgpPaymentCharge) error {
	exec := r.db.writer(tx)

	_, err := exec.Exec(ctx, `
		INSERT INTO payment_charges (`+chargeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		charge.ID,
		charge.PaymentIntentID,
		string(charge.PgpCode),
		charge.IdempotencyKey,
		string(charge.Status),
		charge.Currency,
		charge.Amount,
		charge.AmountRefunded,
		converters.ToNullableInt8(charge.ApplicationFeeAmount),
		converters.ToNullableText(charge.PayoutAccountID),
		charge.CreatedAt,
		charge.UpdatedAt,
		converters.ToNullableTimestamptz(charge.CapturedAt),
		converters.ToNullableTimestamptz(charge.CancelledAt),
	)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert payment charge", err)
	}

	_, err = exec.Exec(ctx, `
		INSERT INTO pgp_payment_charges
			(id, payment_charge_id, pgp_code, idempotency_key, status, currency,
			 amount, amount_refunded, application_fee_amount, payout_account_id,
			 resource_id, intent_resource_id, payment_method_resource_id,
			 created_at, updated_at, captured_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		pgpCharge.ID,
		pgpCharge.PaymentChargeID,
		string(pgpCharge.PgpCode),
		pgpCharge.IdempotencyKey,
		string(pgpCharge.Status),
		pgpCharge.Currency,
		pgpCharge.Amount,
		pgpCharge.AmountRefunded,
		converters.ToNullableInt8(pgpCharge.ApplicationFeeAmount),
		converters.ToNullableText(pgpCharge.PayoutAccountID),
		pgpCharge.ResourceID,
		pgpCharge.IntentResourceID,
		converters.ToNullableText(pgpCharge.PaymentMethodResourceID),
		pgpCharge.CreatedAt,
		pgpCharge.UpdatedAt,
		converters.ToNullableTimestamptz(pgpCharge.CapturedAt),
		converters.ToNullableTimestamptz(pgpCharge.CancelledAt),
	)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert pgp payment charge", err)
	}
	return nil
}

// GetByIntentID retrieves the charge created when an intent was captured.
func (r *ChargeRepository) GetByIntentID(ctx context.Context, db ports.DBTX, intentID uuid.UUID) (*models.PaymentCharge, error) {
	row := r.db.executor(db).QueryRow(ctx, `
		SELECT `+chargeColumns+` FROM payment_charges WHERE payment_intent_id = $1`, intentID)
	return scanPaymentCharge(row)
}

// UpdateAmountRefunded records the cumulative refunded total on the charge.
func (r *ChargeRepository) UpdateAmountRefunded(ctx context.Context, tx ports.DBTX, chargeID uuid.UUID, amountRefunded int64) (*models.PaymentCharge, error) {
	row := r.db.writer(tx).QueryRow(ctx, `
		UPDATE payment_charges SET amount_refunded = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+chargeColumns, chargeID, amountRefunded)
	return scanPaymentCharge(row)
}

func scanPaymentCharge(row pgx.Row) (*models.PaymentCharge, error) {
	var c models.PaymentCharge
	var pgpCode, status string
	var applicationFee pgtype.Int8
	var payoutAccountID pgtype.Text
	var capturedAt, cancelledAt pgtype.Timestamptz

	err := row.Scan(
		&c.ID,
		&c.PaymentIntentID,
		&pgpCode,
		&c.IdempotencyKey,
		&status,
		&c.Currency,
		&c.Amount,
		&c.AmountRefunded,
		&applicationFee,
		&payoutAccountID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&capturedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan payment charge", err)
	}

	c.PgpCode = domain.PgpCode(pgpCode)
	c.Status = models.ChargeStatus(status)
	c.ApplicationFeeAmount = converters.FromNullableInt8(applicationFee)
	c.PayoutAccountID = converters.FromNullableText(payoutAccountID)
	c.CapturedAt = converters.FromNullableTimestamptz(capturedAt)
	c.CancelledAt = converters.FromNullableTimestamptz(cancelledAt)
	return &c, nil
}
