package paymentmethod_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
	"github.com/kevin07696/payin-service/internal/services/paymentmethod"
)

// MockPaymentMethodRepository mocks the payment method repository
type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) InsertPaymentMethodPair(ctx context.Context, pm *models.PaymentMethod, pgpPM *models.PgpPaymentMethod) (*models.PaymentMethod, *models.PgpPaymentMethod, error) {
	args := m.Called(ctx, pm, pgpPM)
	var inserted *models.PaymentMethod
	var insertedPgp *models.PgpPaymentMethod
	if args.Get(0) != nil {
		inserted = args.Get(0).(*models.PaymentMethod)
	}
	if args.Get(1) != nil {
		insertedPgp = args.Get(1).(*models.PgpPaymentMethod)
	}
	return inserted, insertedPgp, args.Error(2)
}

func (m *MockPaymentMethodRepository) GetPgpPaymentMethodByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PgpPaymentMethod, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PgpPaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) GetPgpPaymentMethodByResourceID(ctx context.Context, db ports.DBTX, pgpResourceID string) (*models.PgpPaymentMethod, error) {
	args := m.Called(ctx, db, pgpResourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PgpPaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) DetachPgpPaymentMethod(ctx context.Context, tx ports.DBTX, id uuid.UUID, at time.Time) (*models.PgpPaymentMethod, error) {
	args := m.Called(ctx, tx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PgpPaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) GetStripeCardByStripeID(ctx context.Context, db ports.DBTX, stripeID string) (*models.LegacyStripeCard, error) {
	args := m.Called(ctx, db, stripeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LegacyStripeCard), args.Error(1)
}

func (m *MockPaymentMethodRepository) GetStripeCardBySerialID(ctx context.Context, db ports.DBTX, id int64) (*models.LegacyStripeCard, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LegacyStripeCard), args.Error(1)
}

func (m *MockPaymentMethodRepository) ListStripeCardsByConsumerID(ctx context.Context, db ports.DBTX, consumerID int64) ([]*models.LegacyStripeCard, error) {
	args := m.Called(ctx, db, consumerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LegacyStripeCard), args.Error(1)
}

// MockLogger mocks the logger port
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields ...ports.Field) { m.Called(msg, fields) }
func (m *MockLogger) Info(msg string, fields ...ports.Field)  { m.Called(msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  { m.Called(msg, fields) }
func (m *MockLogger) Error(msg string, fields ...ports.Field) { m.Called(msg, fields) }

func relaxedLogger() *MockLogger {
	logger := &MockLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	logger.On("Info", mock.Anything, mock.Anything).Maybe()
	logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	logger.On("Error", mock.Anything, mock.Anything).Maybe()
	return logger
}

func notFound() error {
	return domain.NewReadError(domain.ErrorCodeNotFound, "not found", false)
}

func TestService_GetRawPaymentMethod_ByUUID(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())
	ctx := context.Background()

	pmID := uuid.New()
	pgpPM := &models.PgpPaymentMethod{ID: pmID, PgpResourceID: "pm_cur1"}
	repo.On("GetPgpPaymentMethodByID", ctx, nil, pmID).Return(pgpPM, nil)
	repo.On("GetStripeCardByStripeID", ctx, nil, "pm_cur1").Return(nil, notFound())

	raw, err := svc.GetRawPaymentMethod(ctx, pmID.String(), domain.PaymentMethodIDTypePaymentMethodID)

	require.NoError(t, err)
	assert.Equal(t, "pm_cur1", raw.PgpResourceID())
	assert.Nil(t, raw.StripeCardEntity)
}

func TestService_GetRawPaymentMethod_MalformedUUID(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())

	_, err := svc.GetRawPaymentMethod(context.Background(), "not-a-uuid",
		domain.PaymentMethodIDTypePaymentMethodID)

	require.Error(t, err)
	pe := domain.AsPaymentError(err)
	require.NotNil(t, pe)
	assert.Equal(t, domain.ErrorCodeInvalidData, pe.Code)
	assert.False(t, pe.Retryable)
	repo.AssertNotCalled(t, "GetPgpPaymentMethodByID")
}

func TestService_GetRawPaymentMethod_ByStripeIDLoadsBothSchemas(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())
	ctx := context.Background()

	repo.On("GetPgpPaymentMethodByResourceID", ctx, nil, "card_123").
		Return(&models.PgpPaymentMethod{ID: uuid.New(), PgpResourceID: "card_123"}, nil)
	repo.On("GetStripeCardByStripeID", ctx, nil, "card_123").
		Return(&models.LegacyStripeCard{ID: 7, StripeID: "card_123"}, nil)

	raw, err := svc.GetRawPaymentMethod(ctx, "card_123", domain.PaymentMethodIDTypeStripeCardID)

	require.NoError(t, err)
	assert.NotNil(t, raw.PgpPaymentMethodEntity)
	assert.NotNil(t, raw.StripeCardEntity)
	assert.Equal(t, int64(7), raw.LegacyStripeCardID())
}

func TestService_GetRawPaymentMethod_ByStripeIDNeitherSchema(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())
	ctx := context.Background()

	repo.On("GetPgpPaymentMethodByResourceID", ctx, nil, "card_missing").Return(nil, notFound())
	repo.On("GetStripeCardByStripeID", ctx, nil, "card_missing").Return(nil, notFound())

	_, err := svc.GetRawPaymentMethod(ctx, "card_missing", domain.PaymentMethodIDTypeStripeCardID)

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestService_GetRawPaymentMethod_BySerialID(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())
	ctx := context.Background()

	repo.On("GetStripeCardBySerialID", ctx, nil, int64(99)).
		Return(&models.LegacyStripeCard{ID: 99, StripeID: "card_99"}, nil)
	repo.On("GetPgpPaymentMethodByResourceID", ctx, nil, "card_99").Return(nil, notFound())

	raw, err := svc.GetRawPaymentMethod(ctx, "99", domain.PaymentMethodIDTypeStripeCardSerial)

	require.NoError(t, err)
	assert.Nil(t, raw.PgpPaymentMethodEntity)
	assert.Equal(t, "card_99", raw.PgpResourceID())
}

func TestService_GetRawPaymentMethod_NonNumericSerial(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())

	_, err := svc.GetRawPaymentMethod(context.Background(), "abc",
		domain.PaymentMethodIDTypeStripeCardSerial)

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeInvalidData, domain.GetErrorCode(err))
	repo.AssertNotCalled(t, "GetStripeCardBySerialID")
}

func TestService_GetRawPaymentMethod_UnknownIDType(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())

	_, err := svc.GetRawPaymentMethod(context.Background(), "anything", "bogus_type")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeInvalidData, domain.GetErrorCode(err))
	assert.False(t, domain.IsRetryable(err))
}

func TestService_ListPayerCards(t *testing.T) {
	repo := &MockPaymentMethodRepository{}
	svc := paymentmethod.NewService(repo, relaxedLogger())
	ctx := context.Background()

	cards := []*models.LegacyStripeCard{
		{ID: 2, StripeID: "card_2", Active: true},
		{ID: 1, StripeID: "card_1", Active: true},
	}
	repo.On("ListStripeCardsByConsumerID", ctx, nil, int64(12345)).Return(cards, nil)

	got, err := svc.ListPayerCards(ctx, 12345)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}
