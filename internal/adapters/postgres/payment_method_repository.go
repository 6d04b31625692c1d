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

// PaymentMethodRepository persists payment methods across both stores:
// payerDB holds the current-schema rows, mainDB holds the legacy stripe_card
// rows.
type PaymentMethodRepository struct {
	payerDB *DBExecutor
	mainDB  *DBExecutor
}

// NewPaymentMethodRepository creates a new payment method repository
func NewPaymentMethodRepository(payerDB, mainDB *DBExecutor) *PaymentMethodRepository {
	return &PaymentMethodRepository{payerDB: payerDB, mainDB: mainDB}
}

const pgpPaymentMethodColumns = `id, payment_method_id, payer_id, pgp_code, pgp_resource_id,
	legacy_consumer_id, type, created_at, updated_at, attached_at, detached_at, deleted_at`

const stripeCardColumns = `id, stripe_id, fingerprint, last4, dynamic_last4, exp_month,
	exp_year, type, active, country_of_origin, consumer_id, stripe_customer_id,
	tokenization_method, created_at, removed_at`

// InsertPaymentMethodPair writes the payment method and its gateway mirror
// in one payment-DB transaction.
func (r *PaymentMethodRepository) InsertPaymentMethodPair(ctx context.Context, pm *models.PaymentMethod, pgpPM *models.PgpPaymentMethod) (*models.PaymentMethod, *models.PgpPaymentMethod, error) {
	err := r.payerDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO payment_methods (id, payer_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4)`,
			pm.ID, pm.PayerID, pm.CreatedAt, pm.UpdatedAt)
		if err != nil {
			return classifyDBError(domain.KindCreationError, "insert payment method", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO pgp_payment_methods (`+pgpPaymentMethodColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			pgpPM.ID,
			pgpPM.PaymentMethodID,
			pgpPM.PayerID,
			string(pgpPM.PgpCode),
			pgpPM.PgpResourceID,
			converters.ToNullableText(pgpPM.LegacyConsumerID),
			pgpPM.Type,
			pgpPM.CreatedAt,
			pgpPM.UpdatedAt,
			converters.ToNullableTimestamptz(pgpPM.AttachedAt),
			converters.ToNullableTimestamptz(pgpPM.DetachedAt),
			converters.ToNullableTimestamptz(pgpPM.DeletedAt),
		)
		if err != nil {
			return classifyDBError(domain.KindCreationError, "insert pgp payment method", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pm, pgpPM, nil
}

// GetPgpPaymentMethodByID retrieves a current-schema payment method by id.
func (r *PaymentMethodRepository) GetPgpPaymentMethodByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PgpPaymentMethod, error) {
	row := r.payerDB.executor(db).QueryRow(ctx, `
		SELECT `+pgpPaymentMethodColumns+` FROM pgp_payment_methods
		WHERE payment_method_id = $1 AND deleted_at IS NULL`, id)
	return scanPgpPaymentMethod(row)
}

// GetPgpPaymentMethodByResourceID retrieves a current-schema payment method
// by its gateway resource id.
func (r *PaymentMethodRepository) GetPgpPaymentMethodByResourceID(ctx context.Context, db ports.DBTX, pgpResourceID string) (*models.PgpPaymentMethod, error) {
	row := r.payerDB.executor(db).QueryRow(ctx, `
		SELECT `+pgpPaymentMethodColumns+` FROM pgp_payment_methods
		WHERE pgp_resource_id = $1 AND deleted_at IS NULL`, pgpResourceID)
	return scanPgpPaymentMethod(row)
}

// DetachPgpPaymentMethod marks the method detached without destroying the
// row, so historical charges keep their reference.
func (r *PaymentMethodRepository) DetachPgpPaymentMethod(ctx context.Context, tx ports.DBTX, id uuid.UUID, at time.Time) (*models.PgpPaymentMethod, error) {
	row := r.payerDB.writer(tx).QueryRow(ctx, `
		UPDATE pgp_payment_methods SET detached_at = $2, updated_at = now()
		WHERE payment_method_id = $1 AND deleted_at IS NULL
		RETURNING `+pgpPaymentMethodColumns, id, at)
	return scanPgpPaymentMethod(row)
}

// GetStripeCardByStripeID retrieves a legacy card row by gateway id.
func (r *PaymentMethodRepository) GetStripeCardByStripeID(ctx context.Context, db ports.DBTX, stripeID string) (*models.LegacyStripeCard, error) {
	row := r.mainDB.executor(db).QueryRow(ctx, `
		SELECT `+stripeCardColumns+` FROM stripe_cards WHERE stripe_id = $1`, stripeID)
	return scanStripeCard(row)
}

// GetStripeCardBySerialID retrieves a legacy card row by serial id.
func (r *PaymentMethodRepository) GetStripeCardBySerialID(ctx context.Context, db ports.DBTX, id int64) (*models.LegacyStripeCard, error) {
	row := r.mainDB.executor(db).QueryRow(ctx, `
		SELECT `+stripeCardColumns+` FROM stripe_cards WHERE id = $1`, id)
	return scanStripeCard(row)
}

// ListStripeCardsByConsumerID lists the active legacy cards of a consumer.
func (r *PaymentMethodRepository) ListStripeCardsByConsumerID(ctx context.Context, db ports.DBTX, consumerID int64) ([]*models.LegacyStripeCard, error) {
	rows, err := r.mainDB.executor(db).Query(ctx, `
		SELECT `+stripeCardColumns+` FROM stripe_cards
		WHERE consumer_id = $1 AND active ORDER BY created_at DESC`, consumerID)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "list stripe cards", err)
	}
	defer rows.Close()

	var out []*models.LegacyStripeCard
	for rows.Next() {
		card, err := scanStripeCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(domain.KindReadError, "list stripe cards", err)
	}
	return out, nil
}

func scanPgpPaymentMethod(row pgx.Row) (*models.PgpPaymentMethod, error) {
	var pm models.PgpPaymentMethod
	var pgpCode string
	var legacyConsumerID pgtype.Text
	var attachedAt, detachedAt, deletedAt pgtype.Timestamptz

	err := row.Scan(
		&pm.ID,
		&pm.PaymentMethodID,
		&pm.PayerID,
		&pgpCode,
		&pm.PgpResourceID,
		&legacyConsumerID,
		&pm.Type,
		&pm.CreatedAt,
		&pm.UpdatedAt,
		&attachedAt,
		&detachedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan pgp payment method", err)
	}

	pm.PgpCode = domain.PgpCode(pgpCode)
	pm.LegacyConsumerID = converters.FromNullableText(legacyConsumerID)
	pm.AttachedAt = converters.FromNullableTimestamptz(attachedAt)
	pm.DetachedAt = converters.FromNullableTimestamptz(detachedAt)
	pm.DeletedAt = converters.FromNullableTimestamptz(deletedAt)
	return &pm, nil
}

func scanStripeCard(row pgx.Row) (*models.LegacyStripeCard, error) {
	var c models.LegacyStripeCard
	var countryOfOrigin, tokenizationMethod pgtype.Text
	var consumerID, stripeCustomerID pgtype.Int8
	var removedAt pgtype.Timestamptz

	err := row.Scan(
		&c.ID,
		&c.StripeID,
		&c.Fingerprint,
		&c.Last4,
		&c.DynamicLast4,
		&c.ExpMonth,
		&c.ExpYear,
		&c.Type,
		&c.Active,
		&countryOfOrigin,
		&consumerID,
		&stripeCustomerID,
		&tokenizationMethod,
		&c.CreatedAt,
		&removedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan stripe card", err)
	}

	c.CountryOfOrigin = converters.FromNullableText(countryOfOrigin)
	c.ConsumerID = converters.FromNullableInt8(consumerID)
	c.StripeCustomerID = converters.FromNullableInt8(stripeCustomerID)
	c.TokenizationMethod = converters.FromNullableText(tokenizationMethod)
	c.RemovedAt = converters.FromNullableTimestamptz(removedAt)
	return &c, nil
}
