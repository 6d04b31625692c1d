package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/payin-service/internal/converters"
	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// PaymentIntentRepository implements ports.PaymentIntentRepository against
// the payment DB.
type PaymentIntentRepository struct {
	db *DBExecutor
}

// NewPaymentIntentRepository creates a new payment intent repository
func NewPaymentIntentRepository(db *DBExecutor) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

const intentColumns = `id, cart_payment_id, idempotency_key, amount_initiated, amount,
	application_fee_amount, capture_method, country, currency, status,
	statement_descriptor, payment_method_id, legacy_consumer_charge_id,
	created_at, updated_at, captured_at, cancelled_at, capture_after`

const pgpIntentColumns = `id, payment_intent_id, idempotency_key, pgp_code, resource_id,
	status, charge_resource_id, payment_method_resource_id, customer_resource_id,
	currency, amount, amount_capturable, amount_received, application_fee_amount,
	payout_account_id, capture_method, created_at, updated_at, captured_at, cancelled_at`

// InsertIntentPair writes the intent and its gateway mirror. Callers wrap it
// in a transaction together with the owning cart payment write; both rows
// appear atomically or not at all.
func (r *PaymentIntentRepository) InsertIntentPair(ctx context.Context, tx ports.DBTX, intent *models.PaymentIntent, pgpIntent *models.PgpPaymentIntent) error {
	exec := r.db.writer(tx)

	_, err := exec.Exec(ctx, `
		INSERT INTO payment_intents (`+intentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		intent.ID,
		intent.CartPaymentID,
		intent.IdempotencyKey,
		intent.AmountInitiated,
		intent.Amount,
		converters.ToNullableInt8(intent.ApplicationFeeAmount),
		string(intent.CaptureMethod),
		string(intent.Country),
		intent.Currency,
		string(intent.Status),
		converters.ToNullableText(intent.StatementDescriptor),
		intent.PaymentMethodID,
		intent.LegacyConsumerChargeID,
		intent.CreatedAt,
		intent.UpdatedAt,
		converters.ToNullableTimestamptz(intent.CapturedAt),
		converters.ToNullableTimestamptz(intent.CancelledAt),
		converters.ToNullableTimestamptz(intent.CaptureAfter),
	)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert payment intent", err)
	}

	_, err = exec.Exec(ctx, `
		INSERT INTO pgp_payment_intents (`+pgpIntentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		pgpIntent.ID,
		pgpIntent.PaymentIntentID,
		pgpIntent.IdempotencyKey,
		string(pgpIntent.PgpCode),
		pgpIntent.ResourceID,
		string(pgpIntent.Status),
		converters.ToNullableText(pgpIntent.ChargeResourceID),
		pgpIntent.PaymentMethodResourceID,
		converters.ToNullableText(pgpIntent.CustomerResourceID),
		pgpIntent.Currency,
		pgpIntent.Amount,
		converters.ToNullableInt8(pgpIntent.AmountCapturable),
		converters.ToNullableInt8(pgpIntent.AmountReceived),
		converters.ToNullableInt8(pgpIntent.ApplicationFeeAmount),
		converters.ToNullableText(pgpIntent.PayoutAccountID),
		string(pgpIntent.CaptureMethod),
		pgpIntent.CreatedAt,
		pgpIntent.UpdatedAt,
		converters.ToNullableTimestamptz(pgpIntent.CapturedAt),
		converters.ToNullableTimestamptz(pgpIntent.CancelledAt),
	)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert pgp payment intent", err)
	}
	return nil
}

// GetByID retrieves a payment intent by id.
func (r *PaymentIntentRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PaymentIntent, error) {
	row := r.db.executor(db).QueryRow(ctx, `
		SELECT `+intentColumns+` FROM payment_intents WHERE id = $1`, id)
	return scanPaymentIntent(row)
}

// GetByIdempotencyKey retrieves a payment intent by its creation key.
func (r *PaymentIntentRepository) GetByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*models.PaymentIntent, error) {
	row := r.db.executor(db).QueryRow(ctx, `
		SELECT `+intentColumns+` FROM payment_intents WHERE idempotency_key = $1`, key)
	return scanPaymentIntent(row)
}

// ListByCartPayment lists the intents owned by a cart payment, oldest first.
func (r *PaymentIntentRepository) ListByCartPayment(ctx context.Context, db ports.DBTX, cartPaymentID uuid.UUID) ([]*models.PaymentIntent, error) {
	rows, err := r.db.executor(db).Query(ctx, `
		SELECT `+intentColumns+` FROM payment_intents
		WHERE cart_payment_id = $1 ORDER BY created_at ASC`, cartPaymentID)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "list payment intents", err)
	}
	defer rows.Close()

	var out []*models.PaymentIntent
	for rows.Next() {
		intent, err := scanPaymentIntent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(domain.KindReadError, "list payment intents", err)
	}
	return out, nil
}

// GetPgpIntentByIntentID retrieves the gateway mirror of an intent.
func (r *PaymentIntentRepository) GetPgpIntentByIntentID(ctx context.Context, db ports.DBTX, intentID uuid.UUID) (*models.PgpPaymentIntent, error) {
	row := r.db.executor(db).QueryRow(ctx, `
		SELECT `+pgpIntentColumns+` FROM pgp_payment_intents WHERE payment_intent_id = $1`, intentID)
	return scanPgpPaymentIntent(row)
}

// UpdateStatus advances an intent between lifecycle states. The WHERE guard
// on the current status keeps transitions monotonic under concurrent
// replays; a miss surfaces as NOT_FOUND.
func (r *PaymentIntentRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id uuid.UUID, from, to models.IntentStatus, at time.Time) (*models.PaymentIntent, error) {
	var setTimestamp string
	switch to {
	case models.IntentStatusCaptured:
		setTimestamp = ", captured_at = $4"
	case models.IntentStatusCancelled:
		setTimestamp = ", cancelled_at = $4"
	}

	args := []interface{}{id, string(from), string(to)}
	query := `
		UPDATE payment_intents SET status = $3, updated_at = now()` + setTimestamp + `
		WHERE id = $1 AND status = $2
		RETURNING ` + intentColumns
	if setTimestamp != "" {
		args = append(args, at)
	}

	row := r.db.writer(tx).QueryRow(ctx, query, args...)
	intent, err := scanPaymentIntent(row)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUpdateError(domain.ErrorCodeNotFound,
				"payment intent not in expected status", false)
		}
		return nil, err
	}
	return intent, nil
}

// UpdateAmount replaces the current amount, returning the fresh snapshot.
func (r *PaymentIntentRepository) UpdateAmount(ctx context.Context, tx ports.DBTX, id uuid.UUID, amount int64) (*models.PaymentIntent, error) {
	row := r.db.writer(tx).QueryRow(ctx, `
		UPDATE payment_intents SET amount = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+intentColumns, id, amount)
	return scanPaymentIntent(row)
}

// UpdatePgpIntentStatus advances the gateway mirror and records
// gateway-reported amounts.
func (r *PaymentIntentRepository) UpdatePgpIntentStatus(ctx context.Context, tx ports.DBTX, pgpIntentID uuid.UUID, to models.IntentStatus, amountReceived *int64, chargeResourceID *string, at time.Time) (*models.PgpPaymentIntent, error) {
	var capturedAt, cancelledAt pgtype.Timestamptz
	switch to {
	case models.IntentStatusCaptured:
		capturedAt = pgtype.Timestamptz{Time: at, Valid: true}
	case models.IntentStatusCancelled:
		cancelledAt = pgtype.Timestamptz{Time: at, Valid: true}
	}

	row := r.db.writer(tx).QueryRow(ctx, `
		UPDATE pgp_payment_intents
		SET status = $2,
		    amount_received = COALESCE($3, amount_received),
		    charge_resource_id = COALESCE($4, charge_resource_id),
		    captured_at = COALESCE($5, captured_at),
		    cancelled_at = COALESCE($6, cancelled_at),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+pgpIntentColumns,
		pgpIntentID,
		string(to),
		converters.ToNullableInt8(amountReceived),
		converters.ToNullableText(chargeResourceID),
		capturedAt,
		cancelledAt,
	)
	return scanPgpPaymentIntent(row)
}

// InsertAdjustmentHistory appends one amount-change record. The table is
// append-only; there is no update or delete path.
func (r *PaymentIntentRepository) InsertAdjustmentHistory(ctx context.Context, tx ports.DBTX, h *models.PaymentIntentAdjustmentHistory) error {
	_, err := r.db.writer(tx).Exec(ctx, `
		INSERT INTO payment_intent_adjustment_history
			(id, payer_id, payment_intent_id, amount, amount_original, amount_delta,
			 currency, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		h.ID, h.PayerID, h.PaymentIntentID, h.Amount, h.AmountOriginal,
		h.AmountDelta, h.Currency, h.IdempotencyKey, h.CreatedAt)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert adjustment history", err)
	}
	return nil
}

// CountAdjustments returns the number of adjustments recorded for an intent.
func (r *PaymentIntentRepository) CountAdjustments(ctx context.Context, db ports.DBTX, intentID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.executor(db).QueryRow(ctx, `
		SELECT count(*) FROM payment_intent_adjustment_history WHERE payment_intent_id = $1`,
		intentID).Scan(&n)
	if err != nil {
		return 0, classifyDBError(domain.KindReadError, "count adjustments", err)
	}
	return n, nil
}

// ListAdjustments returns the adjustment history for an intent, oldest first.
func (r *PaymentIntentRepository) ListAdjustments(ctx context.Context, db ports.DBTX, intentID uuid.UUID) ([]*models.PaymentIntentAdjustmentHistory, error) {
	rows, err := r.db.executor(db).Query(ctx, `
		SELECT id, payer_id, payment_intent_id, amount, amount_original, amount_delta,
		       currency, idempotency_key, created_at
		FROM payment_intent_adjustment_history
		WHERE payment_intent_id = $1 ORDER BY created_at ASC`, intentID)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "list adjustments", err)
	}
	defer rows.Close()

	var out []*models.PaymentIntentAdjustmentHistory
	for rows.Next() {
		var h models.PaymentIntentAdjustmentHistory
		if err := rows.Scan(&h.ID, &h.PayerID, &h.PaymentIntentID, &h.Amount,
			&h.AmountOriginal, &h.AmountDelta, &h.Currency, &h.IdempotencyKey,
			&h.CreatedAt); err != nil {
			return nil, classifyDBError(domain.KindReadError, "scan adjustment", err)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(domain.KindReadError, "list adjustments", err)
	}
	return out, nil
}

func scanPaymentIntent(row pgx.Row) (*models.PaymentIntent, error) {
	var i models.PaymentIntent
	var captureMethod, country, status string
	var applicationFee pgtype.Int8
	var statementDescriptor pgtype.Text
	var capturedAt, cancelledAt, captureAfter pgtype.Timestamptz

	err := row.Scan(
		&i.ID,
		&i.CartPaymentID,
		&i.IdempotencyKey,
		&i.AmountInitiated,
		&i.Amount,
		&applicationFee,
		&captureMethod,
		&country,
		&i.Currency,
		&status,
		&statementDescriptor,
		&i.PaymentMethodID,
		&i.LegacyConsumerChargeID,
		&i.CreatedAt,
		&i.UpdatedAt,
		&capturedAt,
		&cancelledAt,
		&captureAfter,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan payment intent", err)
	}

	i.ApplicationFeeAmount = converters.FromNullableInt8(applicationFee)
	i.CaptureMethod = domain.CaptureMethod(captureMethod)
	i.Country = domain.CountryCode(country)
	i.Status = models.IntentStatus(status)
	i.StatementDescriptor = converters.FromNullableText(statementDescriptor)
	i.CapturedAt = converters.FromNullableTimestamptz(capturedAt)
	i.CancelledAt = converters.FromNullableTimestamptz(cancelledAt)
	i.CaptureAfter = converters.FromNullableTimestamptz(captureAfter)
	return &i, nil
}

func scanPgpPaymentIntent(row pgx.Row) (*models.PgpPaymentIntent, error) {
	var p models.PgpPaymentIntent
	var pgpCode, status, captureMethod string
	var chargeResourceID, customerResourceID, payoutAccountID pgtype.Text
	var amountCapturable, amountReceived, applicationFee pgtype.Int8
	var capturedAt, cancelledAt pgtype.Timestamptz

	err := row.Scan(
		&p.ID,
		&p.PaymentIntentID,
		&p.IdempotencyKey,
		&pgpCode,
		&p.ResourceID,
		&status,
		&chargeResourceID,
		&p.PaymentMethodResourceID,
		&customerResourceID,
		&p.Currency,
		&p.Amount,
		&amountCapturable,
		&amountReceived,
		&applicationFee,
		&payoutAccountID,
		&captureMethod,
		&p.CreatedAt,
		&p.UpdatedAt,
		&capturedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan pgp payment intent", err)
	}

	p.PgpCode = domain.PgpCode(pgpCode)
	p.Status = models.IntentStatus(status)
	p.ChargeResourceID = converters.FromNullableText(chargeResourceID)
	p.CustomerResourceID = converters.FromNullableText(customerResourceID)
	p.AmountCapturable = converters.FromNullableInt8(amountCapturable)
	p.AmountReceived = converters.FromNullableInt8(amountReceived)
	p.ApplicationFeeAmount = converters.FromNullableInt8(applicationFee)
	p.PayoutAccountID = converters.FromNullableText(payoutAccountID)
	p.CaptureMethod = domain.CaptureMethod(captureMethod)
	p.CapturedAt = converters.FromNullableTimestamptz(capturedAt)
	p.CancelledAt = converters.FromNullableTimestamptz(cancelledAt)
	return &p, nil
}
