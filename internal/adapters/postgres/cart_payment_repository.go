package postgres

import (
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/payin-service/internal/converters"
	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// CartPaymentRepository implements ports.CartPaymentRepository against the
// payment DB.
type CartPaymentRepository struct {
	db *DBExecutor
}

// NewCartPaymentRepository creates a new cart payment repository
func NewCartPaymentRepository(db *DBExecutor) *CartPaymentRepository {
	return &CartPaymentRepository{db: db}
}

const cartPaymentColumns = `id, amount, payer_id, payment_method_id, delay_capture,
	reference_id, reference_type, client_description, payer_statement_description,
	payout_account_id, application_fee_amount, country, currency, capture_after,
	created_at, updated_at, deleted_at`

// Insert persists a new cart payment row.
func (r *CartPaymentRepository) Insert(ctx context.Context, tx ports.DBTX, cp *models.CartPayment) error {
	var payoutAccountID *string
	var applicationFee *int64
	if cp.SplitPayment != nil {
		payoutAccountID = &cp.SplitPayment.PayoutAccountID
		applicationFee = &cp.SplitPayment.ApplicationFeeAmount
	}

	_, err := r.db.writer(tx).Exec(ctx, `
		INSERT INTO cart_payments (`+cartPaymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		cp.ID,
		cp.Amount,
		cp.PayerID,
		cp.PaymentMethodID,
		cp.DelayCapture,
		cp.CorrelationIDs.ReferenceID,
		cp.CorrelationIDs.ReferenceType,
		converters.ToNullableText(cp.ClientDescription),
		converters.ToNullableText(cp.PayerStatementDescription),
		converters.ToNullableText(payoutAccountID),
		converters.ToNullableInt8(applicationFee),
		string(cp.Country),
		cp.Currency,
		converters.ToNullableTimestamptz(cp.CaptureAfter),
		cp.CreatedAt,
		cp.UpdatedAt,
		converters.ToNullableTimestamptz(cp.DeletedAt),
	)
	if err != nil {
		return classifyDBError(domain.KindCreationError, "insert cart payment", err)
	}
	return nil
}

// GetByID retrieves a cart payment by its id.
func (r *CartPaymentRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.CartPayment, error) {
	row := r.db.executor(db).QueryRow(ctx, `
		SELECT `+cartPaymentColumns+` FROM cart_payments WHERE id = $1`, id)
	return scanCartPayment(row)
}

// ListByPayer lists cart payments for a payer with pagination, newest first.
func (r *CartPaymentRepository) ListByPayer(ctx context.Context, db ports.DBTX, payerID uuid.UUID, limit, offset int32) ([]*models.CartPayment, error) {
	rows, err := r.db.executor(db).Query(ctx, `
		SELECT `+cartPaymentColumns+` FROM cart_payments
		WHERE payer_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, payerID, limit, offset)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "list cart payments by payer", err)
	}
	defer rows.Close()

	var out []*models.CartPayment
	for rows.Next() {
		cp, err := scanCartPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(domain.KindReadError, "list cart payments by payer", err)
	}
	return out, nil
}

// UpdateAmount replaces the cart payment amount, returning the fresh row.
func (r *CartPaymentRepository) UpdateAmount(ctx context.Context, tx ports.DBTX, id uuid.UUID, amount int64) (*models.CartPayment, error) {
	row := r.db.writer(tx).QueryRow(ctx, `
		UPDATE cart_payments SET amount = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+cartPaymentColumns, id, amount)
	return scanCartPayment(row)
}

// SoftDelete marks a cart payment deleted without removing the row.
func (r *CartPaymentRepository) SoftDelete(ctx context.Context, tx ports.DBTX, id uuid.UUID, deletedAt time.Time) error {
	tag, err := r.db.writer(tx).Exec(ctx, `
		UPDATE cart_payments SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedAt)
	if err != nil {
		return classifyDBError(domain.KindUpdateError, "soft delete cart payment", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewUpdateError(domain.ErrorCodeNotFound, "cart payment not found or already deleted", false)
	}
	return nil
}

func scanCartPayment(row pgx.Row) (*models.CartPayment, error) {
	var cp models.CartPayment
	var country string
	var clientDescription, statementDescription, payoutAccountID pgtype.Text
	var applicationFee pgtype.Int8
	var captureAfter, deletedAt pgtype.Timestamptz

	err := row.Scan(
		&cp.ID,
		&cp.Amount,
		&cp.PayerID,
		&cp.PaymentMethodID,
		&cp.DelayCapture,
		&cp.CorrelationIDs.ReferenceID,
		&cp.CorrelationIDs.ReferenceType,
		&clientDescription,
		&statementDescription,
		&payoutAccountID,
		&applicationFee,
		&country,
		&cp.Currency,
		&captureAfter,
		&cp.CreatedAt,
		&cp.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, classifyDBError(domain.KindReadError, "scan cart payment", err)
	}

	cp.Country = domain.CountryCode(country)
	cp.ClientDescription = converters.FromNullableText(clientDescription)
	cp.PayerStatementDescription = converters.FromNullableText(statementDescription)
	cp.CaptureAfter = converters.FromNullableTimestamptz(captureAfter)
	cp.DeletedAt = converters.FromNullableTimestamptz(deletedAt)
	if payoutAccountID.Valid {
		cp.SplitPayment = &models.SplitPayment{
			PayoutAccountID:      payoutAccountID.String,
			ApplicationFeeAmount: applicationFee.Int64,
		}
	}
	return &cp, nil
}
