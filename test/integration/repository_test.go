package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/payin-service/internal/adapters/postgres"
	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/test/integration/testdb"
)

func newCartPayment(payerID uuid.UUID) *models.CartPayment {
	now := time.Now()
	return &models.CartPayment{
		ID:              uuid.New(),
		Amount:          1000,
		PayerID:         payerID,
		PaymentMethodID: uuid.New(),
		DelayCapture:    true,
		CorrelationIDs: models.CorrelationIDs{
			ReferenceID:   "4001",
			ReferenceType: "order",
		},
		Country:   domain.CountryUS,
		Currency:  "usd",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newIntentPair(cartPaymentID uuid.UUID, key string) (*models.PaymentIntent, *models.PgpPaymentIntent) {
	now := time.Now()
	intent := &models.PaymentIntent{
		ID:              uuid.New(),
		CartPaymentID:   cartPaymentID,
		IdempotencyKey:  key,
		AmountInitiated: 1000,
		Amount:          1000,
		CaptureMethod:   domain.CaptureMethodManual,
		Country:         domain.CountryUS,
		Currency:        "usd",
		Status:          models.IntentStatusRequiresCapture,
		PaymentMethodID: uuid.New(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	pgpIntent := &models.PgpPaymentIntent{
		ID:                      uuid.New(),
		PaymentIntentID:         intent.ID,
		IdempotencyKey:          key,
		PgpCode:                 domain.PgpCodeStripe,
		ResourceID:              "pi_" + intent.ID.String()[:8],
		Status:                  models.IntentStatusRequiresCapture,
		PaymentMethodResourceID: "pm_test",
		Currency:                "usd",
		Amount:                  1000,
		CaptureMethod:           domain.CaptureMethodManual,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	return intent, pgpIntent
}

func TestCartPaymentRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := testdb.SetupTestDB(t)
	defer testdb.TeardownTestDB(t, pool)

	db := postgres.NewDBExecutor(pool)
	repo := postgres.NewCartPaymentRepository(db)

	t.Run("InsertAndGet", func(t *testing.T) {
		testdb.CleanDatabase(t, pool)
		ctx := context.Background()

		cp := newCartPayment(uuid.New())
		require.NoError(t, repo.Insert(ctx, nil, cp))

		got, err := repo.GetByID(ctx, nil, cp.ID)
		require.NoError(t, err)
		assert.Equal(t, cp.ID, got.ID)
		assert.Equal(t, int64(1000), got.Amount)
		assert.Equal(t, "4001", got.CorrelationIDs.ReferenceID)
		assert.True(t, got.DelayCapture)
		assert.Nil(t, got.SplitPayment)
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("SplitPaymentRoundTrip", func(t *testing.T) {
		testdb.CleanDatabase(t, pool)
		ctx := context.Background()

		cp := newCartPayment(uuid.New())
		cp.SplitPayment = &models.SplitPayment{
			PayoutAccountID:      "acct_1",
			ApplicationFeeAmount: 150,
		}
		require.NoError(t, repo.Insert(ctx, nil, cp))

		got, err := repo.GetByID(ctx, nil, cp.ID)
		require.NoError(t, err)
		require.NotNil(t, got.SplitPayment)
		assert.Equal(t, "acct_1", got.SplitPayment.PayoutAccountID)
		assert.Equal(t, int64(150), got.SplitPayment.ApplicationFeeAmount)
	})

	t.Run("ListByPayerExcludesDeleted", func(t *testing.T) {
		testdb.CleanDatabase(t, pool)
		ctx := context.Background()

		payerID := uuid.New()
		kept := newCartPayment(payerID)
		deleted := newCartPayment(payerID)
		require.NoError(t, repo.Insert(ctx, nil, kept))
		require.NoError(t, repo.Insert(ctx, nil, deleted))
		require.NoError(t, repo.SoftDelete(ctx, nil, deleted.ID, time.Now()))

		got, err := repo.ListByPayer(ctx, nil, payerID, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, kept.ID, got[0].ID)
	})

	t.Run("SoftDeleteTwiceIsNotFound", func(t *testing.T) {
		testdb.CleanDatabase(t, pool)
		ctx := context.Background()

		cp := newCartPayment(uuid.New())
		require.NoError(t, repo.Insert(ctx, nil, cp))
		require.NoError(t, repo.SoftDelete(ctx, nil, cp.ID, time.Now()))

		err := repo.SoftDelete(ctx, nil, cp.ID, time.Now())
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestPaymentIntentRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := testdb.SetupTestDB(t)
	defer testdb.TeardownTestDB(t, pool)

	db := postgres.NewDBExecutor(pool)
	cartPayments := postgres.NewCartPaymentRepository(db)
	intents := postgres.NewPaymentIntentRepository(db)

	setup := func(t *testing.T, key string) (*models.PaymentIntent, *models.PgpPaymentIntent) {
		testdb.CleanDatabase(t, pool)
		ctx := context.Background()

		cp := newCartPayment(uuid.New())
		require.NoError(t, cartPayments.Insert(ctx, nil, cp))

		intent, pgpIntent := newIntentPair(cp.ID, key)
		require.NoError(t, intents.InsertIntentPair(ctx, nil, intent, pgpIntent))
		return intent, pgpIntent
	}

	t.Run("InsertPairAndGetByKey", func(t *testing.T) {
		intent, _ := setup(t, "key-"+uuid.NewString())
		ctx := context.Background()

		got, err := intents.GetByIdempotencyKey(ctx, nil, intent.IdempotencyKey)
		require.NoError(t, err)
		assert.Equal(t, intent.ID, got.ID)
		assert.Equal(t, models.IntentStatusRequiresCapture, got.Status)

		mirror, err := intents.GetPgpIntentByIntentID(ctx, nil, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, intent.ID, mirror.PaymentIntentID)
	})

	t.Run("DuplicateCreationKeyRejected", func(t *testing.T) {
		intent, _ := setup(t, "dup-key")
		ctx := context.Background()

		again, againPgp := newIntentPair(intent.CartPaymentID, "dup-key")
		err := intents.InsertIntentPair(ctx, nil, again, againPgp)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeAlreadyExists, domain.GetErrorCode(err))
		assert.False(t, domain.IsRetryable(err))
	})

	t.Run("GuardedStatusUpdate", func(t *testing.T) {
		intent, _ := setup(t, "key-"+uuid.NewString())
		ctx := context.Background()

		updated, err := intents.UpdateStatus(ctx, nil, intent.ID,
			models.IntentStatusRequiresCapture, models.IntentStatusCaptured, time.Now())
		require.NoError(t, err)
		assert.Equal(t, models.IntentStatusCaptured, updated.Status)
		assert.NotNil(t, updated.CapturedAt)

		// A replay of the same transition misses the guard.
		_, err = intents.UpdateStatus(ctx, nil, intent.ID,
			models.IntentStatusRequiresCapture, models.IntentStatusCaptured, time.Now())
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("AdjustmentHistoryIsAppendOnlyPerKey", func(t *testing.T) {
		intent, _ := setup(t, "key-"+uuid.NewString())
		ctx := context.Background()

		h := &models.PaymentIntentAdjustmentHistory{
			ID:              uuid.New(),
			PayerID:         uuid.New(),
			PaymentIntentID: intent.ID,
			Amount:          800,
			AmountOriginal:  1000,
			AmountDelta:     -200,
			Currency:        "usd",
			IdempotencyKey:  intent.IdempotencyKey + "-adjust-0",
			CreatedAt:       time.Now(),
		}
		require.NoError(t, intents.InsertAdjustmentHistory(ctx, nil, h))

		n, err := intents.CountAdjustments(ctx, nil, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		replay := *h
		replay.ID = uuid.New()
		err = intents.InsertAdjustmentHistory(ctx, nil, &replay)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeAlreadyExists, domain.GetErrorCode(err))
	})
}

func TestRefundRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := testdb.SetupTestDB(t)
	defer testdb.TeardownTestDB(t, pool)

	db := postgres.NewDBExecutor(pool)
	cartPayments := postgres.NewCartPaymentRepository(db)
	intents := postgres.NewPaymentIntentRepository(db)
	refunds := postgres.NewRefundRepository(db)

	testdb.CleanDatabase(t, pool)
	ctx := context.Background()

	cp := newCartPayment(uuid.New())
	require.NoError(t, cartPayments.Insert(ctx, nil, cp))
	intent, pgpIntent := newIntentPair(cp.ID, "refund-base")
	require.NoError(t, intents.InsertIntentPair(ctx, nil, intent, pgpIntent))

	now := time.Now()
	refund := &models.Refund{
		ID:              uuid.New(),
		PaymentIntentID: intent.ID,
		IdempotencyKey:  "refund-base-refund-0",
		Status:          models.RefundStatusProcessing,
		Amount:          300,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	pgpRefund := &models.PgpRefund{
		ID:             uuid.New(),
		RefundID:       refund.ID,
		IdempotencyKey: refund.IdempotencyKey,
		Status:         models.RefundStatusProcessing,
		PgpCode:        domain.PgpCodeStripe,
		Amount:         300,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, refunds.InsertRefundPair(ctx, nil, refund, pgpRefund))

	resourceID := "re_1"
	updated, err := refunds.UpdateStatus(ctx, nil, refund.ID, models.RefundStatusSucceeded, &resourceID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusSucceeded, updated.Status)

	got, err := refunds.GetByIdempotencyKey(ctx, nil, refund.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, refund.ID, got.ID)

	all, err := refunds.ListByIntentID(ctx, nil, intent.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
