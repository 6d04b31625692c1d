package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/payin-service/internal/converters"
	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// LegacyChargeRepository persists the main-DB shadow charge rows the
// pre-rewrite system reads. Amount columns in the legacy schema are NUMERIC
// major units; the domain always speaks minor units, so conversion happens
// here and nowhere else.
type LegacyChargeRepository struct {
	db *DBExecutor
}

// NewLegacyChargeRepository creates a new legacy charge repository
func NewLegacyChargeRepository(db *DBExecutor) *LegacyChargeRepository {
	return &LegacyChargeRepository{db: db}
}

// InsertConsumerCharge writes a consumer charge shadow row, returning it
// with the assigned serial id.
func (r *LegacyChargeRepository) InsertConsumerCharge(ctx context.Context, tx ports.DBTX, cc *models.LegacyConsumerCharge) (*models.LegacyConsumerCharge, error) {
	total, err := converters.MinorUnitsToNumeric(cc.Total)
	if err != nil {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData, "invalid charge total", false)
	}
	originalTotal, err := converters.MinorUnitsToNumeric(cc.OriginalTotal)
	if err != nil {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData, "invalid charge original total", false)
	}

	err = r.db.writer(tx).QueryRow(ctx, `
		INSERT INTO consumer_charges
			(target_id, target_ct_id, idempotency_key, total, original_total,
			 currency, country_id, stripe_customer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		cc.TargetID,
		cc.TargetCtID,
		cc.IdempotencyKey,
		total,
		originalTotal,
		cc.Currency,
		cc.CountryID,
		converters.ToNullableInt8(cc.StripeCustomerID),
		cc.CreatedAt,
	).Scan(&cc.ID)
	if err != nil {
		return nil, classifyDBError(domain.KindCreationError, "insert consumer charge", err)
	}
	return cc, nil
}

// GetConsumerChargeByID retrieves a consumer charge shadow row.
func (r *LegacyChargeRepository) GetConsumerChargeByID(ctx context.Context, db ports.DBTX, id int64) (*models.LegacyConsumerCharge, error) {
	var cc models.LegacyConsumerCharge
	var total, originalTotal pgtype.Numeric
	var stripeCustomerID pgtype.Int8

	err := r.db.executor(db).QueryRow(ctx, `
		SELECT id, target_id, target_ct_id, idempotency_key, total, original_total,
		       currency, country_id, stripe_customer_id, created_at
		FROM consumer_charges WHERE id = $1`, id).Scan(
		&cc.ID,
		&cc.TargetID,
		&cc.TargetCtID,
		&cc.IdempotencyKey,
		&total,
		&originalTotal,
		&cc.Currency,
		&cc.CountryID,
		&stripeCustomerID,
		&cc.CreatedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "get consumer charge", err)
	}

	if cc.Total, err = converters.NumericToMinorUnits(total); err != nil {
		return nil, domain.WrapReadError(domain.ErrorCodeInvalidData, "malformed charge total", false, err)
	}
	if cc.OriginalTotal, err = converters.NumericToMinorUnits(originalTotal); err != nil {
		return nil, domain.WrapReadError(domain.ErrorCodeInvalidData, "malformed charge original total", false, err)
	}
	cc.StripeCustomerID = converters.FromNullableInt8(stripeCustomerID)
	return &cc, nil
}

// GetConsumerChargeByIdempotencyKey retrieves the consumer charge shadow row
// written for an idempotency key, if any. Replayed creations look the charge
// up here before inserting so the legacy schema never double-bills.
func (r *LegacyChargeRepository) GetConsumerChargeByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*models.LegacyConsumerCharge, error) {
	var cc models.LegacyConsumerCharge
	var total, originalTotal pgtype.Numeric
	var stripeCustomerID pgtype.Int8

	err := r.db.executor(db).QueryRow(ctx, `
		SELECT id, target_id, target_ct_id, idempotency_key, total, original_total,
		       currency, country_id, stripe_customer_id, created_at
		FROM consumer_charges WHERE idempotency_key = $1
		ORDER BY id DESC LIMIT 1`, key).Scan(
		&cc.ID,
		&cc.TargetID,
		&cc.TargetCtID,
		&cc.IdempotencyKey,
		&total,
		&originalTotal,
		&cc.Currency,
		&cc.CountryID,
		&stripeCustomerID,
		&cc.CreatedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "get consumer charge by idempotency key", err)
	}

	if cc.Total, err = converters.NumericToMinorUnits(total); err != nil {
		return nil, domain.WrapReadError(domain.ErrorCodeInvalidData, "malformed charge total", false, err)
	}
	if cc.OriginalTotal, err = converters.NumericToMinorUnits(originalTotal); err != nil {
		return nil, domain.WrapReadError(domain.ErrorCodeInvalidData, "malformed charge original total", false, err)
	}
	cc.StripeCustomerID = converters.FromNullableInt8(stripeCustomerID)
	return &cc, nil
}

// InsertStripeCharge writes a stripe charge shadow row, returning it with
// the assigned serial id.
func (r *LegacyChargeRepository) InsertStripeCharge(ctx context.Context, tx ports.DBTX, sc *models.LegacyStripeCharge) (*models.LegacyStripeCharge, error) {
	amount, err := converters.MinorUnitsToNumeric(sc.Amount)
	if err != nil {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData, "invalid charge amount", false)
	}
	amountRefunded, err := converters.MinorUnitsToNumeric(sc.AmountRefunded)
	if err != nil {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData, "invalid refunded amount", false)
	}

	err = r.db.writer(tx).QueryRow(ctx, `
		INSERT INTO stripe_charges
			(amount, amount_refunded, currency, status, error_reason, description,
			 idempotency_key, card_id, charge_id, stripe_id, created_at, updated_at,
			 refunded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		amount,
		amountRefunded,
		sc.Currency,
		string(sc.Status),
		converters.ToNullableText(sc.ErrorReason),
		converters.ToNullableText(sc.Description),
		sc.IdempotencyKey,
		converters.ToNullableInt8(sc.CardID),
		sc.ChargeID,
		sc.StripeID,
		sc.CreatedAt,
		sc.UpdatedAt,
		converters.ToNullableTimestamptz(sc.RefundedAt),
	).Scan(&sc.ID)
	if err != nil {
		return nil, classifyDBError(domain.KindCreationError, "insert stripe charge", err)
	}
	return sc, nil
}

// UpdateStripeChargeStatus records a status change with the cumulative
// refunded amount on the shadow row.
func (r *LegacyChargeRepository) UpdateStripeChargeStatus(ctx context.Context, tx ports.DBTX, chargeID int64, status models.LegacyStripeChargeStatus, amountRefunded int64, refundedAt *time.Time) (*models.LegacyStripeCharge, error) {
	refunded, err := converters.MinorUnitsToNumeric(amountRefunded)
	if err != nil {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData, "invalid refunded amount", false)
	}

	row := r.db.writer(tx).QueryRow(ctx, `
		UPDATE stripe_charges
		SET status = $2, amount_refunded = $3,
		    refunded_at = COALESCE($4, refunded_at),
		    updated_at = now()
		WHERE charge_id = $1
		RETURNING id, amount, amount_refunded, currency, status, error_reason,
		          description, idempotency_key, card_id, charge_id, stripe_id,
		          created_at, updated_at, refunded_at`,
		chargeID, string(status), refunded, converters.ToNullableTimestamptz(refundedAt))
	return scanStripeCharge(row)
}

func scanStripeCharge(row pgx.Row) (*models.LegacyStripeCharge, error) {
	var sc models.LegacyStripeCharge
	var amount, amountRefunded pgtype.Numeric
	var status string
	var errorReason, description pgtype.Text
	var cardID pgtype.Int8
	var refundedAt pgtype.Timestamptz

	err := row.Scan(
		&sc.ID,
		&amount,
		&amountRefunded,
		&sc.Currency,
		&status,
		&errorReason,
		&description,
		&sc.IdempotencyKey,
		&cardID,
		&sc.ChargeID,
		&sc.StripeID,
		&sc.CreatedAt,
		&sc.UpdatedAt,
		&refundedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan stripe charge", err)
	}

	if sc.Amount, err = converters.NumericToMinorUnits(amount); err != nil {
		return nil, domain.WrapReadError(domain.ErrorCodeInvalidData, "malformed charge amount", false, err)
	}
	if sc.AmountRefunded, err = converters.NumericToMinorUnits(amountRefunded); err != nil {
		return nil, domain.WrapReadError(domain.ErrorCodeInvalidData, "malformed refunded amount", false, err)
	}
	sc.Status = models.LegacyStripeChargeStatus(status)
	sc.ErrorReason = converters.FromNullableText(errorReason)
	sc.Description = converters.FromNullableText(description)
	sc.CardID = converters.FromNullableInt8(cardID)
	sc.RefundedAt = converters.FromNullableTimestamptz(refundedAt)
	return &sc, nil
}
