package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain/models"
)

// CartPaymentRepository persists cart payments in the payment DB.
type CartPaymentRepository interface {
	Insert(ctx context.Context, tx DBTX, cp *models.CartPayment) error
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.CartPayment, error)
	ListByPayer(ctx context.Context, db DBTX, payerID uuid.UUID, limit, offset int32) ([]*models.CartPayment, error)
	UpdateAmount(ctx context.Context, tx DBTX, id uuid.UUID, amount int64) (*models.CartPayment, error)
	SoftDelete(ctx context.Context, tx DBTX, id uuid.UUID, deletedAt time.Time) error
}

// PaymentIntentRepository persists payment intents, their gateway mirrors,
// and the append-only adjustment history. Pair inserts are atomic: both rows
// or neither.
type PaymentIntentRepository interface {
	InsertIntentPair(ctx context.Context, tx DBTX, intent *models.PaymentIntent, pgpIntent *models.PgpPaymentIntent) error
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.PaymentIntent, error)
	GetByIdempotencyKey(ctx context.Context, db DBTX, key string) (*models.PaymentIntent, error)
	ListByCartPayment(ctx context.Context, db DBTX, cartPaymentID uuid.UUID) ([]*models.PaymentIntent, error)
	GetPgpIntentByIntentID(ctx context.Context, db DBTX, intentID uuid.UUID) (*models.PgpPaymentIntent, error)

	// UpdateStatus advances an intent from one status to another. The
	// update is guarded on the current status so that concurrent replays
	// cannot regress the lifecycle; a guard miss returns NOT_FOUND.
	UpdateStatus(ctx context.Context, tx DBTX, id uuid.UUID, from, to models.IntentStatus, at time.Time) (*models.PaymentIntent, error)
	UpdateAmount(ctx context.Context, tx DBTX, id uuid.UUID, amount int64) (*models.PaymentIntent, error)
	UpdatePgpIntentStatus(ctx context.Context, tx DBTX, pgpIntentID uuid.UUID, to models.IntentStatus, amountReceived *int64, chargeResourceID *string, at time.Time) (*models.PgpPaymentIntent, error)

	InsertAdjustmentHistory(ctx context.Context, tx DBTX, h *models.PaymentIntentAdjustmentHistory) error
	CountAdjustments(ctx context.Context, db DBTX, intentID uuid.UUID) (int64, error)
	ListAdjustments(ctx context.Context, db DBTX, intentID uuid.UUID) ([]*models.PaymentIntentAdjustmentHistory, error)
}

// ChargeRepository persists captured charges and their gateway mirrors.
type ChargeRepository interface {
	InsertChargePair(ctx context.Context, tx DBTX, charge *models.PaymentCharge, pgpCharge *models.PgpPaymentCharge) error
	GetByIntentID(ctx context.Context, db DBTX, intentID uuid.UUID) (*models.PaymentCharge, error)
	UpdateAmountRefunded(ctx context.Context, tx DBTX, chargeID uuid.UUID, amountRefunded int64) (*models.PaymentCharge, error)
}

// RefundRepository persists refunds and their gateway mirrors.
type RefundRepository interface {
	InsertRefundPair(ctx context.Context, tx DBTX, refund *models.Refund, pgpRefund *models.PgpRefund) error
	GetByIdempotencyKey(ctx context.Context, db DBTX, key string) (*models.Refund, error)
	ListByIntentID(ctx context.Context, db DBTX, intentID uuid.UUID) ([]*models.Refund, error)
	UpdateStatus(ctx context.Context, tx DBTX, refundID uuid.UUID, to models.RefundStatus, pgpResourceID *string) (*models.Refund, error)
}

// PayerRepository persists payers across both stores: current-schema rows in
// the payment DB and legacy customer rows in the main DB.
type PayerRepository interface {
	// InsertPayerAndPgpCustomer writes both rows in one payment-DB
	// transaction; partial writes never become visible.
	InsertPayerAndPgpCustomer(ctx context.Context, payer *models.Payer, pgpCustomer *models.PgpCustomer) (*models.Payer, *models.PgpCustomer, error)
	InsertPayer(ctx context.Context, tx DBTX, payer *models.Payer) (*models.Payer, error)
	GetPayerByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.Payer, error)
	GetPayerByDDPayerID(ctx context.Context, db DBTX, ddPayerID string) (*models.Payer, error)
	GetPayerByDDPayerIDAndType(ctx context.Context, db DBTX, ddPayerID string, payerType string) (*models.Payer, error)
	GetPayerByLegacyStripeCustomerID(ctx context.Context, db DBTX, stripeCustomerID string) (*models.Payer, error)
	GetPgpCustomerByPayerID(ctx context.Context, db DBTX, payerID uuid.UUID) (*models.PgpCustomer, error)
	UpdatePgpCustomerDefaultPaymentMethod(ctx context.Context, tx DBTX, pgpCustomerID uuid.UUID, defaultPaymentMethodID string) (*models.PgpCustomer, error)

	GetStripeCustomerByStripeID(ctx context.Context, db DBTX, stripeID string) (*models.LegacyStripeCustomer, error)
	GetStripeCustomerBySerialID(ctx context.Context, db DBTX, id int64) (*models.LegacyStripeCustomer, error)
	GetStripeCustomerByOwnerID(ctx context.Context, db DBTX, ownerType string, ownerID int64) (*models.LegacyStripeCustomer, error)
	InsertStripeCustomer(ctx context.Context, tx DBTX, sc *models.LegacyStripeCustomer) (*models.LegacyStripeCustomer, error)
	UpdateStripeCustomerDefaultCard(ctx context.Context, tx DBTX, id int64, defaultCard string) (*models.LegacyStripeCustomer, error)
}

// PaymentMethodRepository persists payment methods across both stores.
type PaymentMethodRepository interface {
	InsertPaymentMethodPair(ctx context.Context, pm *models.PaymentMethod, pgpPM *models.PgpPaymentMethod) (*models.PaymentMethod, *models.PgpPaymentMethod, error)
	GetPgpPaymentMethodByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.PgpPaymentMethod, error)
	GetPgpPaymentMethodByResourceID(ctx context.Context, db DBTX, pgpResourceID string) (*models.PgpPaymentMethod, error)
	DetachPgpPaymentMethod(ctx context.Context, tx DBTX, id uuid.UUID, at time.Time) (*models.PgpPaymentMethod, error)

	GetStripeCardByStripeID(ctx context.Context, db DBTX, stripeID string) (*models.LegacyStripeCard, error)
	GetStripeCardBySerialID(ctx context.Context, db DBTX, id int64) (*models.LegacyStripeCard, error)
	ListStripeCardsByConsumerID(ctx context.Context, db DBTX, consumerID int64) ([]*models.LegacyStripeCard, error)
}

// LegacyChargeRepository persists the main-DB shadow charge records required
// by the pre-rewrite system.
type LegacyChargeRepository interface {
	InsertConsumerCharge(ctx context.Context, tx DBTX, cc *models.LegacyConsumerCharge) (*models.LegacyConsumerCharge, error)
	GetConsumerChargeByID(ctx context.Context, db DBTX, id int64) (*models.LegacyConsumerCharge, error)
	GetConsumerChargeByIdempotencyKey(ctx context.Context, db DBTX, key string) (*models.LegacyConsumerCharge, error)
	InsertStripeCharge(ctx context.Context, tx DBTX, sc *models.LegacyStripeCharge) (*models.LegacyStripeCharge, error)
	UpdateStripeChargeStatus(ctx context.Context, tx DBTX, chargeID int64, status models.LegacyStripeChargeStatus, amountRefunded int64, refundedAt *time.Time) (*models.LegacyStripeCharge, error)
}
