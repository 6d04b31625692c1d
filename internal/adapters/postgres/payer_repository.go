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

// PayerRepository persists payers across both stores: payerDB holds the
// current-schema payer and pgp_customer rows, mainDB holds the legacy
// stripe_customer rows the pre-rewrite system owns.
type PayerRepository struct {
	payerDB *DBExecutor
	mainDB  *DBExecutor
}

// NewPayerRepository creates a new payer repository
func NewPayerRepository(payerDB, mainDB *DBExecutor) *PayerRepository {
	return &PayerRepository{payerDB: payerDB, mainDB: mainDB}
}

const payerColumns = `id, payer_type, dd_payer_id, legacy_stripe_customer_id, country,
	description, created_at, updated_at, deleted_at`

const pgpCustomerColumns = `id, payer_id, pgp_code, pgp_resource_id,
	default_payment_method_id, currency, created_at, updated_at`

const stripeCustomerColumns = `id, stripe_id, country_shortname, owner_type, owner_id,
	default_card, default_source`

// InsertPayerAndPgpCustomer writes both rows in one payment-DB transaction.
// A unique violation on the payer surfaces as ALREADY_EXISTS so callers can
// fall back to reading the winner.
func (r *PayerRepository) InsertPayerAndPgpCustomer(ctx context.Context, payer *models.Payer, pgpCustomer *models.PgpCustomer) (*models.Payer, *models.PgpCustomer, error) {
	err := r.payerDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := r.InsertPayer(ctx, tx, payer); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO pgp_customers (`+pgpCustomerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			pgpCustomer.ID,
			pgpCustomer.PayerID,
			string(pgpCustomer.PgpCode),
			pgpCustomer.PgpResourceID,
			converters.ToNullableText(pgpCustomer.DefaultPaymentMethodID),
			converters.ToNullableText(pgpCustomer.Currency),
			pgpCustomer.CreatedAt,
			pgpCustomer.UpdatedAt,
		)
		if err != nil {
			return classifyDBError(domain.KindCreationError, "insert pgp customer", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payer, pgpCustomer, nil
}

// InsertPayer writes a single payer row.
func (r *PayerRepository) InsertPayer(ctx context.Context, tx ports.DBTX, payer *models.Payer) (*models.Payer, error) {
	exec := r.payerDB.writer(tx)
	_, err := exec.Exec(ctx, `
		INSERT INTO payers (`+payerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		payer.ID,
		string(payer.PayerType),
		payer.DDPayerID,
		payer.LegacyStripeCustomerID,
		string(payer.Country),
		converters.ToNullableText(payer.Description),
		payer.CreatedAt,
		payer.UpdatedAt,
		converters.ToNullableTimestamptz(payer.DeletedAt),
	)
	if err != nil {
		return nil, classifyDBError(domain.KindCreationError, "insert payer", err)
	}
	return payer, nil
}

// GetPayerByID retrieves a payer by id.
func (r *PayerRepository) GetPayerByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.Payer, error) {
	row := r.payerDB.executor(db).QueryRow(ctx, `
		SELECT `+payerColumns+` FROM payers WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanPayer(row)
}

// GetPayerByDDPayerID retrieves a payer by the internal owner id.
func (r *PayerRepository) GetPayerByDDPayerID(ctx context.Context, db ports.DBTX, ddPayerID string) (*models.Payer, error) {
	row := r.payerDB.executor(db).QueryRow(ctx, `
		SELECT `+payerColumns+` FROM payers
		WHERE dd_payer_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC LIMIT 1`, ddPayerID)
	return scanPayer(row)
}

// GetPayerByDDPayerIDAndType retrieves a payer by owner id and payer type.
func (r *PayerRepository) GetPayerByDDPayerIDAndType(ctx context.Context, db ports.DBTX, ddPayerID string, payerType string) (*models.Payer, error) {
	row := r.payerDB.executor(db).QueryRow(ctx, `
		SELECT `+payerColumns+` FROM payers
		WHERE dd_payer_id = $1 AND payer_type = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC LIMIT 1`, ddPayerID, payerType)
	return scanPayer(row)
}

// GetPayerByLegacyStripeCustomerID retrieves a payer by the gateway customer
// id recorded when the legacy row was provisioned.
func (r *PayerRepository) GetPayerByLegacyStripeCustomerID(ctx context.Context, db ports.DBTX, stripeCustomerID string) (*models.Payer, error) {
	row := r.payerDB.executor(db).QueryRow(ctx, `
		SELECT `+payerColumns+` FROM payers
		WHERE legacy_stripe_customer_id = $1 AND deleted_at IS NULL`, stripeCustomerID)
	return scanPayer(row)
}

// GetPgpCustomerByPayerID retrieves the gateway mirror of a payer.
func (r *PayerRepository) GetPgpCustomerByPayerID(ctx context.Context, db ports.DBTX, payerID uuid.UUID) (*models.PgpCustomer, error) {
	row := r.payerDB.executor(db).QueryRow(ctx, `
		SELECT `+pgpCustomerColumns+` FROM pgp_customers WHERE payer_id = $1`, payerID)
	return scanPgpCustomer(row)
}

// UpdatePgpCustomerDefaultPaymentMethod records the new default on the pgp
// customer row after the gateway accepted the change.
func (r *PayerRepository) UpdatePgpCustomerDefaultPaymentMethod(ctx context.Context, tx ports.DBTX, pgpCustomerID uuid.UUID, defaultPaymentMethodID string) (*models.PgpCustomer, error) {
	exec := r.payerDB.writer(tx)
	row := exec.QueryRow(ctx, `
		UPDATE pgp_customers SET default_payment_method_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+pgpCustomerColumns, pgpCustomerID, defaultPaymentMethodID)
	return scanPgpCustomer(row)
}

// GetStripeCustomerByStripeID retrieves a legacy customer row by gateway id.
func (r *PayerRepository) GetStripeCustomerByStripeID(ctx context.Context, db ports.DBTX, stripeID string) (*models.LegacyStripeCustomer, error) {
	row := r.mainDB.executor(db).QueryRow(ctx, `
		SELECT `+stripeCustomerColumns+` FROM stripe_customers WHERE stripe_id = $1`, stripeID)
	return scanStripeCustomer(row)
}

// GetStripeCustomerBySerialID retrieves a legacy customer row by serial id.
func (r *PayerRepository) GetStripeCustomerBySerialID(ctx context.Context, db ports.DBTX, id int64) (*models.LegacyStripeCustomer, error) {
	row := r.mainDB.executor(db).QueryRow(ctx, `
		SELECT `+stripeCustomerColumns+` FROM stripe_customers WHERE id = $1`, id)
	return scanStripeCustomer(row)
}

// GetStripeCustomerByOwnerID retrieves a legacy customer row by its owner.
// Owners can accumulate more than one row over time; the newest wins.
func (r *PayerRepository) GetStripeCustomerByOwnerID(ctx context.Context, db ports.DBTX, ownerType string, ownerID int64) (*models.LegacyStripeCustomer, error) {
	row := r.mainDB.executor(db).QueryRow(ctx, `
		SELECT `+stripeCustomerColumns+` FROM stripe_customers
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY id DESC LIMIT 1`, ownerType, ownerID)
	return scanStripeCustomer(row)
}

// InsertStripeCustomer writes a legacy customer row, returning it with the
// assigned serial id.
func (r *PayerRepository) InsertStripeCustomer(ctx context.Context, tx ports.DBTX, sc *models.LegacyStripeCustomer) (*models.LegacyStripeCustomer, error) {
	exec := r.mainDB.writer(tx)
	err := exec.QueryRow(ctx, `
		INSERT INTO stripe_customers
			(stripe_id, country_shortname, owner_type, owner_id, default_card, default_source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		sc.StripeID,
		sc.CountryShortname,
		sc.OwnerType,
		sc.OwnerID,
		converters.ToNullableText(sc.DefaultCard),
		converters.ToNullableText(sc.DefaultSource),
	).Scan(&sc.ID)
	if err != nil {
		return nil, classifyDBError(domain.KindCreationError, "insert stripe customer", err)
	}
	return sc, nil
}

// UpdateStripeCustomerDefaultCard records the new default card on the legacy
// customer row.
func (r *PayerRepository) UpdateStripeCustomerDefaultCard(ctx context.Context, tx ports.DBTX, id int64, defaultCard string) (*models.LegacyStripeCustomer, error) {
	exec := r.mainDB.writer(tx)
	row := exec.QueryRow(ctx, `
		UPDATE stripe_customers SET default_card = $2
		WHERE id = $1
		RETURNING `+stripeCustomerColumns, id, defaultCard)
	return scanStripeCustomer(row)
}

func scanPayer(row pgx.Row) (*models.Payer, error) {
	var p models.Payer
	var payerType, country string
	var description pgtype.Text
	var deletedAt pgtype.Timestamptz

	err := row.Scan(
		&p.ID,
		&payerType,
		&p.DDPayerID,
		&p.LegacyStripeCustomerID,
		&country,
		&description,
		&p.CreatedAt,
		&p.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan payer", err)
	}

	p.PayerType = domain.PayerType(payerType)
	p.Country = domain.CountryCode(country)
	p.Description = converters.FromNullableText(description)
	p.DeletedAt = converters.FromNullableTimestamptz(deletedAt)
	return &p, nil
}

func scanPgpCustomer(row pgx.Row) (*models.PgpCustomer, error) {
	var pc models.PgpCustomer
	var pgpCode string
	var defaultPM, currency pgtype.Text

	err := row.Scan(
		&pc.ID,
		&pc.PayerID,
		&pgpCode,
		&pc.PgpResourceID,
		&defaultPM,
		&currency,
		&pc.CreatedAt,
		&pc.UpdatedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan pgp customer", err)
	}

	pc.PgpCode = domain.PgpCode(pgpCode)
	pc.DefaultPaymentMethodID = converters.FromNullableText(defaultPM)
	pc.Currency = converters.FromNullableText(currency)
	return &pc, nil
}

func scanStripeCustomer(row pgx.Row) (*models.LegacyStripeCustomer, error) {
	var sc models.LegacyStripeCustomer
	var defaultCard, defaultSource pgtype.Text

	err := row.Scan(
		&sc.ID,
		&sc.StripeID,
		&sc.CountryShortname,
		&sc.OwnerType,
		&sc.OwnerID,
		&defaultCard,
		&defaultSource,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan stripe customer", err)
	}

	sc.DefaultCard = converters.FromNullableText(defaultCard)
	sc.DefaultSource = converters.FromNullableText(defaultSource)
	return &sc, nil
}
