package cartpayment_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// MockDBPort mocks the database port
type MockDBPort struct {
	mock.Mock
}

func (m *MockDBPort) Primary() *pgxpool.Pool {
	return nil
}

func (m *MockDBPort) Replica() *pgxpool.Pool {
	return nil
}

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	// Execute the function with a nil transaction for testing
	return fn(ctx, nil)
}

// MockCartPaymentRepository mocks the cart payment repository
type MockCartPaymentRepository struct {
	mock.Mock
}

func (m *MockCartPaymentRepository) Insert(ctx context.Context, tx ports.DBTX, cp *models.CartPayment) error {
	args := m.Called(ctx, tx, cp)
	return args.Error(0)
}

func (m *MockCartPaymentRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.CartPayment, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartPayment), args.Error(1)
}

func (m *MockCartPaymentRepository) ListByPayer(ctx context.Context, db ports.DBTX, payerID uuid.UUID, limit, offset int32) ([]*models.CartPayment, error) {
	args := m.Called(ctx, db, payerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CartPayment), args.Error(1)
}

func (m *MockCartPaymentRepository) UpdateAmount(ctx context.Context, tx ports.DBTX, id uuid.UUID, amount int64) (*models.CartPayment, error) {
	args := m.Called(ctx, tx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartPayment), args.Error(1)
}

func (m *MockCartPaymentRepository) SoftDelete(ctx context.Context, tx ports.DBTX, id uuid.UUID, deletedAt time.Time) error {
	args := m.Called(ctx, tx, id, deletedAt)
	return args.Error(0)
}

// MockPaymentIntentRepository mocks the payment intent repository
type MockPaymentIntentRepository struct {
	mock.Mock
}

func (m *MockPaymentIntentRepository) InsertIntentPair(ctx context.Context, tx ports.DBTX, intent *models.PaymentIntent, pgpIntent *models.PgpPaymentIntent) error {
	args := m.Called(ctx, tx, intent, pgpIntent)
	return args.Error(0)
}

func (m *MockPaymentIntentRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PaymentIntent, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) GetByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, db, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) ListByCartPayment(ctx context.Context, db ports.DBTX, cartPaymentID uuid.UUID) ([]*models.PaymentIntent, error) {
	args := m.Called(ctx, db, cartPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) GetPgpIntentByIntentID(ctx context.Context, db ports.DBTX, intentID uuid.UUID) (*models.PgpPaymentIntent, error) {
	args := m.Called(ctx, db, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PgpPaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id uuid.UUID, from, to models.IntentStatus, at time.Time) (*models.PaymentIntent, error) {
	args := m.Called(ctx, tx, id, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) UpdateAmount(ctx context.Context, tx ports.DBTX, id uuid.UUID, amount int64) (*models.PaymentIntent, error) {
	args := m.Called(ctx, tx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) UpdatePgpIntentStatus(ctx context.Context, tx ports.DBTX, pgpIntentID uuid.UUID, to models.IntentStatus, amountReceived *int64, chargeResourceID *string, at time.Time) (*models.PgpPaymentIntent, error) {
	args := m.Called(ctx, tx, pgpIntentID, to, amountReceived, chargeResourceID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PgpPaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) InsertAdjustmentHistory(ctx context.Context, tx ports.DBTX, h *models.PaymentIntentAdjustmentHistory) error {
	args := m.Called(ctx, tx, h)
	return args.Error(0)
}

func (m *MockPaymentIntentRepository) CountAdjustments(ctx context.Context, db ports.DBTX, intentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, db, intentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentIntentRepository) ListAdjustments(ctx context.Context, db ports.DBTX, intentID uuid.UUID) ([]*models.PaymentIntentAdjustmentHistory, error) {
	args := m.Called(ctx, db, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentIntentAdjustmentHistory), args.Error(1)
}

// MockChargeRepository mocks the charge repository
type MockChargeRepository struct {
	mock.Mock
}

func (m *MockChargeRepository) InsertChargePair(ctx context.Context, tx ports.DBTX, charge *models.PaymentCharge, pgpCharge *models.PgpPaymentCharge) error {
	args := m.Called(ctx, tx, charge, pgpCharge)
	return args.Error(0)
}

func (m *MockChargeRepository) GetByIntentID(ctx context.Context, db ports.DBTX, intentID uuid.UUID) (*models.PaymentCharge, error) {
	args := m.Called(ctx, db, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentCharge), args.Error(1)
}

func (m *MockChargeRepository) UpdateAmountRefunded(ctx context.Context, tx ports.DBTX, chargeID uuid.UUID, amountRefunded int64) (*models.PaymentCharge, error) {
	args := m.Called(ctx, tx, chargeID, amountRefunded)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentCharge), args.Error(1)
}

// MockRefundRepository mocks the refund repository
type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) InsertRefundPair(ctx context.Context, tx ports.DBTX, refund *models.Refund, pgpRefund *models.PgpRefund) error {
	args := m.Called(ctx, tx, refund, pgpRefund)
	return args.Error(0)
}

func (m *MockRefundRepository) GetByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*models.Refund, error) {
	args := m.Called(ctx, db, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Refund), args.Error(1)
}

func (m *MockRefundRepository) ListByIntentID(ctx context.Context, db ports.DBTX, intentID uuid.UUID) ([]*models.Refund, error) {
	args := m.Called(ctx, db, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Refund), args.Error(1)
}

func (m *MockRefundRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, refundID uuid.UUID, to models.RefundStatus, pgpResourceID *string) (*models.Refund, error) {
	args := m.Called(ctx, tx, refundID, to, pgpResourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Refund), args.Error(1)
}

// MockLegacyChargeRepository mocks the legacy charge repository
type MockLegacyChargeRepository struct {
	mock.Mock
}

func (m *MockLegacyChargeRepository) InsertConsumerCharge(ctx context.Context, tx ports.DBTX, cc *models.LegacyConsumerCharge) (*models.LegacyConsumerCharge, error) {
	args := m.Called(ctx, tx, cc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LegacyConsumerCharge), args.Error(1)
}

func (m *MockLegacyChargeRepository) GetConsumerChargeByID(ctx context.Context, db ports.DBTX, id int64) (*models.LegacyConsumerCharge, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LegacyConsumerCharge), args.Error(1)
}

func (m *MockLegacyChargeRepository) GetConsumerChargeByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*models.LegacyConsumerCharge, error) {
	args := m.Called(ctx, db, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LegacyConsumerCharge), args.Error(1)
}

func (m *MockLegacyChargeRepository) InsertStripeCharge(ctx context.Context, tx ports.DBTX, sc *models.LegacyStripeCharge) (*models.LegacyStripeCharge, error) {
	args := m.Called(ctx, tx, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LegacyStripeCharge), args.Error(1)
}

func (m *MockLegacyChargeRepository) UpdateStripeChargeStatus(ctx context.Context, tx ports.DBTX, chargeID int64, status models.LegacyStripeChargeStatus, amountRefunded int64, refundedAt *time.Time) (*models.LegacyStripeCharge, error) {
	args := m.Called(ctx, tx, chargeID, status, amountRefunded, refundedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LegacyStripeCharge), args.Error(1)
}

// MockPayerResolver mocks the payer resolver
type MockPayerResolver struct {
	mock.Mock
}

func (m *MockPayerResolver) GetRawPayer(ctx context.Context, id string, idType domain.PayerIDType, payerType domain.PayerType) (*models.RawPayer, error) {
	args := m.Called(ctx, id, idType, payerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RawPayer), args.Error(1)
}

// MockPaymentMethodResolver mocks the payment method resolver
type MockPaymentMethodResolver struct {
	mock.Mock
}

func (m *MockPaymentMethodResolver) GetRawPaymentMethod(ctx context.Context, id string, idType domain.PaymentMethodIDType) (*models.RawPaymentMethod, error) {
	args := m.Called(ctx, id, idType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RawPaymentMethod), args.Error(1)
}

// MockPaymentGateway mocks the card gateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, req *ports.CreateIntentRequest) (*ports.IntentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IntentResult), args.Error(1)
}

func (m *MockPaymentGateway) CaptureIntent(ctx context.Context, req *ports.CaptureIntentRequest) (*ports.IntentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IntentResult), args.Error(1)
}

func (m *MockPaymentGateway) CancelIntent(ctx context.Context, req *ports.CancelIntentRequest) (*ports.IntentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IntentResult), args.Error(1)
}

func (m *MockPaymentGateway) RefundCharge(ctx context.Context, req *ports.RefundChargeRequest) (*ports.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RefundResult), args.Error(1)
}

func (m *MockPaymentGateway) CreateCustomer(ctx context.Context, req *ports.CreateCustomerRequest) (*ports.CustomerResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.CustomerResult), args.Error(1)
}

func (m *MockPaymentGateway) UpdateCustomerDefaultPaymentMethod(ctx context.Context, country domain.CountryCode, customerResourceID, paymentMethodResourceID string) (*ports.CustomerResult, error) {
	args := m.Called(ctx, country, customerResourceID, paymentMethodResourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.CustomerResult), args.Error(1)
}

// MockFeatureFlags mocks the feature flag provider
type MockFeatureFlags struct {
	flags map[string]bool
}

func (m *MockFeatureFlags) Enabled(_ context.Context, flag string, defaultValue bool) bool {
	if v, ok := m.flags[flag]; ok {
		return v
	}
	return defaultValue
}

// MockLogger mocks the logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Info(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

func (m *MockLogger) Debug(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

// relaxedLogger returns a logger mock that accepts any call
func relaxedLogger() *MockLogger {
	l := new(MockLogger)
	l.On("Info", mock.Anything, mock.Anything).Return().Maybe()
	l.On("Error", mock.Anything, mock.Anything).Return().Maybe()
	l.On("Warn", mock.Anything, mock.Anything).Return().Maybe()
	l.On("Debug", mock.Anything, mock.Anything).Return().Maybe()
	return l
}
