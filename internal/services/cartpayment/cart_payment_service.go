package cartpayment

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
	"github.com/kevin07696/payin-service/pkg/observability"
)

// PayerResolver resolves payer handles into RawPayer aggregates.
type PayerResolver interface {
	GetRawPayer(ctx context.Context, id string, idType domain.PayerIDType, payerType domain.PayerType) (*models.RawPayer, error)
}

// PaymentMethodResolver resolves payment-method handles into
// RawPaymentMethod aggregates.
type PaymentMethodResolver interface {
	GetRawPaymentMethod(ctx context.Context, id string, idType domain.PaymentMethodIDType) (*models.RawPaymentMethod, error)
}

// Service drives the payment-intent lifecycle: it resolves handles, issues
// gateway calls and ledger writes in a fixed order, and recovers from
// partial failure by leaning on gateway-side idempotency.
//
// Ordering rule for every state-advancing operation: gateway call before
// local commit, local commit before acknowledging the caller.
type Service struct {
	paymentDB     ports.DBPort
	mainDB        ports.DBPort
	cartPayments  ports.CartPaymentRepository
	intents       ports.PaymentIntentRepository
	charges       ports.ChargeRepository
	refunds       ports.RefundRepository
	legacyCharges ports.LegacyChargeRepository
	payers        PayerResolver
	methods       PaymentMethodResolver
	gateway       ports.PaymentGateway
	flags         ports.FeatureFlags
	logger        ports.Logger
}

// NewService creates a new cart payment service
func NewService(
	paymentDB ports.DBPort,
	mainDB ports.DBPort,
	cartPayments ports.CartPaymentRepository,
	intents ports.PaymentIntentRepository,
	charges ports.ChargeRepository,
	refunds ports.RefundRepository,
	legacyCharges ports.LegacyChargeRepository,
	payers PayerResolver,
	methods PaymentMethodResolver,
	gateway ports.PaymentGateway,
	flags ports.FeatureFlags,
	logger ports.Logger,
) *Service {
	return &Service{
		paymentDB:     paymentDB,
		mainDB:        mainDB,
		cartPayments:  cartPayments,
		intents:       intents,
		charges:       charges,
		refunds:       refunds,
		legacyCharges: legacyCharges,
		payers:        payers,
		methods:       methods,
		gateway:       gateway,
		flags:         flags,
		logger:        logger,
	}
}

// CreateCartPaymentRequest carries the inputs for opening a new cart payment
// with its first payment intent.
type CreateCartPaymentRequest struct {
	IdempotencyKey string

	Amount   int64
	Currency string
	Country  domain.CountryCode

	PayerID     string
	PayerIDType domain.PayerIDType
	PayerType   domain.PayerType

	PaymentMethodID     string
	PaymentMethodIDType domain.PaymentMethodIDType

	DelayCapture bool
	CaptureAfter *time.Time

	ReferenceID   string
	ReferenceType string

	ClientDescription         *string
	PayerStatementDescription *string
	SplitPayment              *models.SplitPayment
}

// CreateCartPaymentResult pairs the created cart payment with its intent.
type CreateCartPaymentResult struct {
	CartPayment *models.CartPayment
	Intent      *models.PaymentIntent
}

// legacy country serials the main DB schema predates ISO codes with
var legacyCountryIDs = map[domain.CountryCode]int64{
	domain.CountryUS: 1,
	domain.CountryCA: 2,
	domain.CountryAU: 3,
}

// CreateCartPayment opens a cart payment and drives its first intent through
// gateway creation. A replay with the same idempotency key returns the
// original result; a crash between the gateway call and the local commit is
// recovered on the replay, because the gateway returns the original resource
// for the same key and the local rows are then written as if first time.
func (s *Service) CreateCartPayment(ctx context.Context, req *CreateCartPaymentRequest) (*CreateCartPaymentResult, error) {
	start := time.Now()
	if req.Amount <= 0 {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData, "amount must be positive", false)
	}
	if req.Currency == "" {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData, "currency is required", false)
	}

	key := creationKey(req.IdempotencyKey)

	// Idempotent replay: an intent already persisted under this key is the
	// committed outcome of an earlier call.
	if existing, err := s.intents.GetByIdempotencyKey(ctx, nil, key); err == nil {
		// A failed intent is a recorded gateway decline. Replaying its key
		// re-raises the decline instead of presenting the failure as success.
		if existing.Status == models.IntentStatusFailed {
			return nil, domain.NewCreationError(domain.ErrorCodeGatewayError,
				"payment was declined by the gateway", false)
		}
		cp, err := s.cartPayments.GetByID(ctx, nil, existing.CartPaymentID)
		if err != nil {
			return nil, err
		}
		observability.RecordIdempotentReplay("create")
		s.logger.Info("returning existing cart payment for idempotency key",
			ports.String("idempotency_key", key),
			ports.String("cart_payment_id", cp.ID.String()))
		return &CreateCartPaymentResult{CartPayment: cp, Intent: existing}, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	rawPayer, err := s.payers.GetRawPayer(ctx, req.PayerID, req.PayerIDType, req.PayerType)
	if err != nil {
		return nil, err
	}
	rawMethod, err := s.methods.GetRawPaymentMethod(ctx, req.PaymentMethodID, req.PaymentMethodIDType)
	if err != nil {
		return nil, err
	}

	country := req.Country
	if country == "" {
		country = rawPayer.Country()
	}
	if _, ok := legacyCountryIDs[country]; !ok {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData,
			"no gateway settings for country", false)
	}

	captureMethod := domain.CaptureMethodAuto
	if req.DelayCapture {
		captureMethod = domain.CaptureMethodManual
	}

	statementDescriptor := ""
	if req.PayerStatementDescription != nil {
		statementDescriptor = *req.PayerStatementDescription
	}
	gatewayReq := &ports.CreateIntentRequest{
		Amount:                  req.Amount,
		Currency:                req.Currency,
		Country:                 country,
		CustomerResourceID:      rawPayer.PgpCustomerResourceID(),
		PaymentMethodResourceID: rawMethod.PgpResourceID(),
		CaptureMethod:           captureMethod,
		Confirm:                 true,
		StatementDescriptor:     statementDescriptor,
		IdempotencyKey:          key,
	}
	if req.SplitPayment != nil {
		gatewayReq.PayoutAccountID = req.SplitPayment.PayoutAccountID
		gatewayReq.ApplicationFeeAmount = req.SplitPayment.ApplicationFeeAmount
	}

	gatewayResult, gatewayErr := s.gateway.CreateIntent(ctx, gatewayReq)
	if gatewayErr != nil {
		if domain.IsRetryable(gatewayErr) {
			// Transient gateway failure: no local rows, safe to retry with
			// the same key.
			return nil, gatewayErr
		}
		// Gateway rejected the intent (e.g. card declined). Persist the
		// failure so the caller and audit trail see it.
		if _, persistErr := s.persistCreation(ctx, req, key, country, rawPayer, rawMethod, nil, models.IntentStatusFailed); persistErr != nil {
			s.logger.Error("failed to persist rejected intent",
				ports.String("idempotency_key", key),
				ports.Err(persistErr))
		}
		observability.RecordIntentOperation("create", "rejected",
			string(country), req.Currency, req.Amount, time.Since(start).Seconds())
		return nil, gatewayErr
	}

	status := mapGatewayIntentStatus(gatewayResult.Status)
	result, err := s.persistCreation(ctx, req, key, country, rawPayer, rawMethod, gatewayResult, status)
	if err != nil {
		return nil, err
	}

	observability.RecordIntentOperation("create", "succeeded",
		string(country), req.Currency, req.Amount, time.Since(start).Seconds())
	s.logger.Info("cart payment created",
		ports.String("cart_payment_id", result.CartPayment.ID.String()),
		ports.String("intent_id", result.Intent.ID.String()),
		ports.String("status", string(result.Intent.Status)),
		ports.Int64("amount", req.Amount))

	return result, nil
}

// persistCreation writes the local rows for a newly created intent: the
// legacy shadow rows on the main DB when the payer requires them, then the
// cart payment and intent pair (plus the charge pair for an auto-captured
// intent) in one payment-DB transaction.
func (s *Service) persistCreation(
	ctx context.Context,
	req *CreateCartPaymentRequest,
	key string,
	country domain.CountryCode,
	rawPayer *models.RawPayer,
	rawMethod *models.RawPaymentMethod,
	gatewayResult *ports.IntentResult,
	status models.IntentStatus,
) (*CreateCartPaymentResult, error) {
	now := time.Now()

	var legacyChargeID int64
	if s.needsLegacyShadow(ctx, rawPayer) {
		cc, err := s.writeLegacyShadow(ctx, req, key, country, rawPayer, rawMethod, gatewayResult, status, now)
		if err != nil {
			observability.RecordLegacyShadowWrite("failed")
			return nil, err
		}
		observability.RecordLegacyShadowWrite("success")
		legacyChargeID = cc.ID
	}

	cp := &models.CartPayment{
		ID:           uuid.New(),
		Amount:       req.Amount,
		DelayCapture: req.DelayCapture,
		CorrelationIDs: models.CorrelationIDs{
			ReferenceID:   req.ReferenceID,
			ReferenceType: req.ReferenceType,
		},
		ClientDescription:         req.ClientDescription,
		PayerStatementDescription: req.PayerStatementDescription,
		SplitPayment:              req.SplitPayment,
		Country:                   country,
		Currency:                  req.Currency,
		CaptureAfter:              req.CaptureAfter,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	if rawPayer.PayerEntity != nil {
		cp.PayerID = rawPayer.PayerEntity.ID
	}
	if rawMethod.PgpPaymentMethodEntity != nil {
		cp.PaymentMethodID = rawMethod.PgpPaymentMethodEntity.PaymentMethodID
	}

	intent := &models.PaymentIntent{
		ID:                     uuid.New(),
		CartPaymentID:          cp.ID,
		IdempotencyKey:         key,
		AmountInitiated:        req.Amount,
		Amount:                 req.Amount,
		CaptureMethod:          domain.CaptureMethodManual,
		Country:                country,
		Currency:               req.Currency,
		Status:                 status,
		StatementDescriptor:    req.PayerStatementDescription,
		PaymentMethodID:        cp.PaymentMethodID,
		LegacyConsumerChargeID: legacyChargeID,
		CreatedAt:              now,
		UpdatedAt:              now,
		CaptureAfter:           req.CaptureAfter,
	}
	if !req.DelayCapture {
		intent.CaptureMethod = domain.CaptureMethodAuto
	}
	if req.SplitPayment != nil {
		fee := req.SplitPayment.ApplicationFeeAmount
		intent.ApplicationFeeAmount = &fee
	}

	pgpIntent := &models.PgpPaymentIntent{
		ID:                      uuid.New(),
		PaymentIntentID:         intent.ID,
		IdempotencyKey:          key,
		PgpCode:                 domain.PgpCodeStripe,
		Status:                  status,
		PaymentMethodResourceID: rawMethod.PgpResourceID(),
		Currency:                req.Currency,
		Amount:                  req.Amount,
		CaptureMethod:           intent.CaptureMethod,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if customerID := rawPayer.PgpCustomerResourceID(); customerID != "" {
		pgpIntent.CustomerResourceID = &customerID
	}
	if req.SplitPayment != nil {
		pgpIntent.ApplicationFeeAmount = intent.ApplicationFeeAmount
		payout := req.SplitPayment.PayoutAccountID
		pgpIntent.PayoutAccountID = &payout
	}
	if gatewayResult != nil {
		pgpIntent.ResourceID = gatewayResult.ResourceID
		pgpIntent.AmountCapturable = &gatewayResult.AmountCapturable
		pgpIntent.AmountReceived = &gatewayResult.AmountReceived
		if gatewayResult.ChargeResourceID != "" {
			pgpIntent.ChargeResourceID = &gatewayResult.ChargeResourceID
		}
	}
	if status == models.IntentStatusCaptured {
		intent.CapturedAt = &now
		pgpIntent.CapturedAt = &now
	}

	err := s.paymentDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.cartPayments.Insert(ctx, tx, cp); err != nil {
			return err
		}
		if err := s.intents.InsertIntentPair(ctx, tx, intent, pgpIntent); err != nil {
			return err
		}
		// An auto-captured intent settles in the same transaction.
		if status == models.IntentStatusCaptured && gatewayResult != nil {
			charge, pgpCharge := buildChargePair(intent, pgpIntent, gatewayResult.AmountReceived, now)
			if err := s.charges.InsertChargePair(ctx, tx, charge, pgpCharge); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateCartPaymentResult{CartPayment: cp, Intent: intent}, nil
}

func (s *Service) needsLegacyShadow(ctx context.Context, rawPayer *models.RawPayer) bool {
	if rawPayer.StripeCustomerEntity == nil {
		return false
	}
	return s.flags.Enabled(ctx, ports.FlagLegacyShadowWrites, true)
}

// writeLegacyShadow creates the main-DB consumer charge (and, once the
// gateway answered, its stripe charge shadow) in one main-DB transaction.
// The consumer charge serial id bridges the intent to the legacy schema.
func (s *Service) writeLegacyShadow(
	ctx context.Context,
	req *CreateCartPaymentRequest,
	key string,
	country domain.CountryCode,
	rawPayer *models.RawPayer,
	rawMethod *models.RawPaymentMethod,
	gatewayResult *ports.IntentResult,
	status models.IntentStatus,
	now time.Time,
) (*models.LegacyConsumerCharge, error) {
	// A replay after a crash between the main-DB write and the payment-DB
	// commit re-enters here. The earlier consumer charge is the shadow for
	// this key; inserting again would bill the consumer twice.
	if existing, err := s.legacyCharges.GetConsumerChargeByIdempotencyKey(ctx, nil, key); err == nil {
		return existing, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	targetID, _ := strconv.ParseInt(req.ReferenceID, 10, 64)

	cc := &models.LegacyConsumerCharge{
		TargetID:       targetID,
		IdempotencyKey: key,
		Total:          req.Amount,
		OriginalTotal:  req.Amount,
		Currency:       req.Currency,
		CountryID:      legacyCountryIDs[country],
		CreatedAt:      now,
	}
	if sc := rawPayer.StripeCustomerEntity; sc != nil {
		id := sc.ID
		cc.StripeCustomerID = &id
	}

	err := s.mainDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := s.legacyCharges.InsertConsumerCharge(ctx, tx, cc); err != nil {
			return err
		}
		if gatewayResult == nil {
			return nil
		}

		sc := &models.LegacyStripeCharge{
			Amount:         req.Amount,
			Currency:       req.Currency,
			Status:         models.LegacyStripeChargeStatusSucceeded,
			IdempotencyKey: key,
			ChargeID:       cc.ID,
			StripeID:       gatewayResult.ResourceID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if status == models.IntentStatusFailed {
			sc.Status = models.LegacyStripeChargeStatusFailed
		}
		if cardID := rawMethod.LegacyStripeCardID(); cardID != 0 {
			sc.CardID = &cardID
		}
		_, err := s.legacyCharges.InsertStripeCharge(ctx, tx, sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cc, nil
}

// GetCartPayment returns a cart payment with its intents, reconciling each
// intent against its gateway mirror on the way out.
func (s *Service) GetCartPayment(ctx context.Context, id uuid.UUID) (*models.CartPayment, []*models.PaymentIntent, error) {
	cp, err := s.cartPayments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, nil, err
	}
	intents, err := s.intents.ListByCartPayment(ctx, nil, id)
	if err != nil {
		return nil, nil, err
	}
	for i, intent := range intents {
		reconciled, err := s.reconcileIntent(ctx, intent)
		if err != nil {
			return nil, nil, err
		}
		intents[i] = reconciled
	}
	return cp, intents, nil
}

// ListCartPayments pages through a payer's cart payments, newest first.
func (s *Service) ListCartPayments(ctx context.Context, payerID uuid.UUID, limit, offset int32) (*models.CartPaymentList, error) {
	if limit <= 0 {
		limit = 20
	}
	data, err := s.cartPayments.ListByPayer(ctx, nil, payerID, limit+1, offset)
	if err != nil {
		return nil, err
	}

	hasMore := false
	if int32(len(data)) > limit {
		hasMore = true
		data = data[:limit]
	}
	return &models.CartPaymentList{
		Count:   len(data),
		HasMore: hasMore,
		Data:    data,
	}, nil
}

// DeleteCartPayment soft-deletes a cart payment. Intents keep their history.
func (s *Service) DeleteCartPayment(ctx context.Context, id uuid.UUID) error {
	return s.cartPayments.SoftDelete(ctx, nil, id, time.Now())
}

// mapGatewayIntentStatus maps the gateway's intent status vocabulary onto
// the internal lifecycle.
func mapGatewayIntentStatus(s string) models.IntentStatus {
	switch s {
	case "requires_capture":
		return models.IntentStatusRequiresCapture
	case "succeeded":
		return models.IntentStatusCaptured
	case "canceled", "cancelled":
		return models.IntentStatusCancelled
	}
	return models.IntentStatusInitiated
}

func buildChargePair(intent *models.PaymentIntent, pgpIntent *models.PgpPaymentIntent, amountReceived int64, now time.Time) (*models.PaymentCharge, *models.PgpPaymentCharge) {
	if amountReceived == 0 {
		amountReceived = intent.Amount
	}

	charge := &models.PaymentCharge{
		ID:                   uuid.New(),
		PaymentIntentID:      intent.ID,
		PgpCode:              pgpIntent.PgpCode,
		IdempotencyKey:       intent.IdempotencyKey,
		Status:               models.ChargeStatusSucceeded,
		Currency:             intent.Currency,
		Amount:               amountReceived,
		ApplicationFeeAmount: intent.ApplicationFeeAmount,
		PayoutAccountID:      pgpIntent.PayoutAccountID,
		CreatedAt:            now,
		UpdatedAt:            now,
		CapturedAt:           &now,
	}
	pgpCharge := &models.PgpPaymentCharge{
		ID:                   uuid.New(),
		PaymentChargeID:      charge.ID,
		PgpCode:              pgpIntent.PgpCode,
		IdempotencyKey:       intent.IdempotencyKey,
		Status:               models.ChargeStatusSucceeded,
		Currency:             intent.Currency,
		Amount:               amountReceived,
		ApplicationFeeAmount: intent.ApplicationFeeAmount,
		PayoutAccountID:      pgpIntent.PayoutAccountID,
		ResourceID:           chargeResourceID(pgpIntent),
		IntentResourceID:     pgpIntent.ResourceID,
		CreatedAt:            now,
		UpdatedAt:            now,
		CapturedAt:           &now,
	}
	return charge, pgpCharge
}

func chargeResourceID(pgpIntent *models.PgpPaymentIntent) string {
	if pgpIntent.ChargeResourceID != nil {
		return *pgpIntent.ChargeResourceID
	}
	return ""
}
