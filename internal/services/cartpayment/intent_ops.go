package cartpayment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
	"github.com/kevin07696/payin-service/pkg/observability"
)

// CapturePaymentIntent settles a delay-capture intent for the given amount.
// The amount may be the full intent amount or less; it may not exceed the
// amount currently on the intent. Replays with the derived idempotency key
// are absorbed by the gateway and by the status guard on the local update.
func (s *Service) CapturePaymentIntent(ctx context.Context, intentID uuid.UUID, amount int64) (*models.PaymentIntent, error) {
	start := time.Now()
	intent, err := s.intents.GetByID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	if !intent.CanBeCaptured() {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"payment intent cannot be captured in status "+string(intent.Status), false)
	}
	if amount <= 0 || amount > intent.Amount {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"capture amount must be positive and within the intent amount", false)
	}

	pgpIntent, err := s.intents.GetPgpIntentByIntentID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}

	key := derivedKey(intent.IdempotencyKey, opCapture, 0)
	gatewayResult, err := s.gateway.CaptureIntent(ctx, &ports.CaptureIntentRequest{
		ResourceID:      pgpIntent.ResourceID,
		Country:         intent.Country,
		AmountToCapture: amount,
		IdempotencyKey:  key,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var updated *models.PaymentIntent
	err = s.paymentDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		updated, err = s.intents.UpdateStatus(ctx, tx,
			intentID, models.IntentStatusRequiresCapture, models.IntentStatusCaptured, now)
		if err != nil {
			return remapGuardMiss(err, "payment intent not in capturable status")
		}

		amountReceived := gatewayResult.AmountReceived
		if amountReceived == 0 {
			amountReceived = amount
		}
		var chargeResource *string
		if gatewayResult.ChargeResourceID != "" {
			chargeResource = &gatewayResult.ChargeResourceID
		}
		pgpUpdated, err := s.intents.UpdatePgpIntentStatus(ctx, tx,
			pgpIntent.ID, models.IntentStatusCaptured, &amountReceived, chargeResource, now)
		if err != nil {
			return err
		}

		charge, pgpCharge := buildChargePair(updated, pgpUpdated, amountReceived, now)
		return s.charges.InsertChargePair(ctx, tx, charge, pgpCharge)
	})
	if err != nil {
		return nil, err
	}

	if intent.LegacyConsumerChargeID != 0 {
		s.updateLegacyShadowStatus(ctx, intent, models.LegacyStripeChargeStatusSucceeded, 0, nil)
	}

	observability.RecordIntentOperation("capture", "succeeded",
		string(intent.Country), string(intent.Currency), amount, time.Since(start).Seconds())
	s.logger.Info("payment intent captured",
		ports.String("intent_id", intentID.String()),
		ports.Int64("amount", amount))
	return updated, nil
}

// CancelPaymentIntent voids an intent before capture. Cancellation is
// allowed from INITIATED and REQUIRES_CAPTURE only.
func (s *Service) CancelPaymentIntent(ctx context.Context, intentID uuid.UUID, reason domain.CancellationReason) (*models.PaymentIntent, error) {
	start := time.Now()
	if !reason.Valid() {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"invalid cancellation reason", false)
	}
	intent, err := s.intents.GetByID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	if !intent.CanBeCancelled() {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"payment intent cannot be cancelled in status "+string(intent.Status), false)
	}

	pgpIntent, err := s.intents.GetPgpIntentByIntentID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}

	if _, err := s.gateway.CancelIntent(ctx, &ports.CancelIntentRequest{
		ResourceID: pgpIntent.ResourceID,
		Country:    intent.Country,
		Reason:     reason,
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	fromStatus := intent.Status
	var updated *models.PaymentIntent
	err = s.paymentDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		updated, err = s.intents.UpdateStatus(ctx, tx,
			intentID, fromStatus, models.IntentStatusCancelled, now)
		if err != nil {
			return remapGuardMiss(err, "payment intent not in cancellable status")
		}
		_, err = s.intents.UpdatePgpIntentStatus(ctx, tx,
			pgpIntent.ID, models.IntentStatusCancelled, nil, nil, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.RecordIntentOperation("cancel", "succeeded",
		string(intent.Country), string(intent.Currency), intent.Amount, time.Since(start).Seconds())
	s.logger.Info("payment intent cancelled",
		ports.String("intent_id", intentID.String()),
		ports.String("reason", string(reason)))
	return updated, nil
}

// AdjustPaymentIntent changes the amount of an uncaptured intent, appending
// exactly one history row per applied adjustment. AmountInitiated never
// changes; the delta is recorded relative to the amount being replaced.
func (s *Service) AdjustPaymentIntent(ctx context.Context, intentID uuid.UUID, newAmount int64) (*models.PaymentIntent, error) {
	if newAmount < 0 {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"adjusted amount must not be negative", false)
	}
	intent, err := s.intents.GetByID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	if !intent.CanBeAdjusted() {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"payment intent cannot be adjusted in status "+string(intent.Status), false)
	}

	sequence, err := s.intents.CountAdjustments(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	key := derivedKey(intent.IdempotencyKey, opAdjust, sequence)

	cp, err := s.cartPayments.GetByID(ctx, nil, intent.CartPaymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	history := &models.PaymentIntentAdjustmentHistory{
		ID:              uuid.New(),
		PayerID:         cp.PayerID,
		PaymentIntentID: intentID,
		Amount:          newAmount,
		AmountOriginal:  intent.Amount,
		AmountDelta:     newAmount - intent.Amount,
		Currency:        intent.Currency,
		IdempotencyKey:  key,
		CreatedAt:       now,
	}

	var updated *models.PaymentIntent
	err = s.paymentDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.intents.InsertAdjustmentHistory(ctx, tx, history); err != nil {
			return err
		}
		updated, err = s.intents.UpdateAmount(ctx, tx, intentID, newAmount)
		if err != nil {
			return err
		}
		// Single-intent cart payments track the intent amount.
		_, err = s.cartPayments.UpdateAmount(ctx, tx, cp.ID, newAmount)
		return err
	})
	if err != nil {
		if domain.GetErrorCode(err) == domain.ErrorCodeAlreadyExists {
			// A replay raced us on the same history key. The adjustment is
			// already applied; return the current state.
			observability.RecordIdempotentReplay("adjust")
			s.logger.Info("adjustment replay detected",
				ports.String("intent_id", intentID.String()),
				ports.String("idempotency_key", key))
			return s.intents.GetByID(ctx, nil, intentID)
		}
		return nil, err
	}

	s.logger.Info("payment intent adjusted",
		ports.String("intent_id", intentID.String()),
		ports.Int64("amount", newAmount),
		ports.Int64("amount_delta", history.AmountDelta))
	return updated, nil
}

// RefundPaymentIntent refunds part or all of a captured intent. The sum of
// succeeded and processing refunds may never exceed the captured amount;
// an over-refund is rejected before any gateway call.
func (s *Service) RefundPaymentIntent(ctx context.Context, intentID uuid.UUID, amount int64, reason *string) (*models.Refund, error) {
	if amount <= 0 {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"refund amount must be positive", false)
	}
	intent, err := s.intents.GetByID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	if !intent.CanBeRefunded() {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"payment intent cannot be refunded in status "+string(intent.Status), false)
	}

	priorRefunds, err := s.refunds.ListByIntentID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	var refunded int64
	for _, r := range priorRefunds {
		if r.Status != models.RefundStatusFailed {
			refunded += r.Amount
		}
	}
	if refunded+amount > intent.Amount {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"refund amount exceeds remaining refundable balance", false)
	}

	charge, err := s.charges.GetByIntentID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	pgpIntent, err := s.intents.GetPgpIntentByIntentID(ctx, nil, intentID)
	if err != nil {
		return nil, err
	}
	chargeResource := chargeResourceID(pgpIntent)
	if chargeResource == "" {
		return nil, domain.NewUpdateError(domain.ErrorCodeInvalidData,
			"intent has no gateway charge to refund", false)
	}

	var gatewayReason string
	if reason != nil {
		gatewayReason = *reason
	}
	key := derivedKey(intent.IdempotencyKey, opRefund, int64(len(priorRefunds)))
	gatewayResult, err := s.gateway.RefundCharge(ctx, &ports.RefundChargeRequest{
		ChargeResourceID: chargeResource,
		Country:          intent.Country,
		Amount:           amount,
		Reason:           gatewayReason,
		IdempotencyKey:   key,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	finalStatus := mapGatewayRefundStatus(gatewayResult.Status)

	refund := &models.Refund{
		ID:              uuid.New(),
		PaymentIntentID: intentID,
		IdempotencyKey:  key,
		Status:          models.RefundStatusProcessing,
		Amount:          amount,
		Reason:          reason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	pgpRefund := &models.PgpRefund{
		ID:             uuid.New(),
		RefundID:       refund.ID,
		IdempotencyKey: key,
		Status:         models.RefundStatusProcessing,
		PgpCode:        domain.PgpCodeStripe,
		Amount:         amount,
		Reason:         reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.paymentDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.refunds.InsertRefundPair(ctx, tx, refund, pgpRefund); err != nil {
			return err
		}
		resourceID := gatewayResult.ResourceID
		updated, err := s.refunds.UpdateStatus(ctx, tx, refund.ID, finalStatus, &resourceID)
		if err != nil {
			return err
		}
		refund = updated
		if finalStatus == models.RefundStatusSucceeded {
			_, err = s.charges.UpdateAmountRefunded(ctx, tx, charge.ID, charge.AmountRefunded+amount)
			return err
		}
		return nil
	})
	if err != nil {
		if domain.GetErrorCode(err) == domain.ErrorCodeAlreadyExists {
			observability.RecordIdempotentReplay("refund")
			s.logger.Info("refund replay detected",
				ports.String("intent_id", intentID.String()),
				ports.String("idempotency_key", key))
			return s.refunds.GetByIdempotencyKey(ctx, nil, key)
		}
		return nil, err
	}

	if intent.LegacyConsumerChargeID != 0 && finalStatus == models.RefundStatusSucceeded {
		s.updateLegacyShadowStatus(ctx, intent, models.LegacyStripeChargeStatusRefunded, charge.AmountRefunded+amount, &now)
	}

	observability.RecordRefund(string(refund.Status), string(intent.Currency), amount)
	s.logger.Info("payment intent refunded",
		ports.String("intent_id", intentID.String()),
		ports.Int64("amount", amount),
		ports.String("refund_status", string(refund.Status)))
	return refund, nil
}

// updateLegacyShadowStatus best-effort syncs the main-DB stripe charge
// shadow after a capture or refund. A failure here is logged, not
// propagated: the payment DB is the source of truth and the shadow is
// reconciled by the backfill job.
func (s *Service) updateLegacyShadowStatus(ctx context.Context, intent *models.PaymentIntent, status models.LegacyStripeChargeStatus, amountRefunded int64, refundedAt *time.Time) {
	err := s.mainDB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := s.legacyCharges.UpdateStripeChargeStatus(ctx, tx,
			intent.LegacyConsumerChargeID, status, amountRefunded, refundedAt)
		return err
	})
	if err != nil {
		observability.RecordLegacyShadowWrite("failed")
		s.logger.Warn("failed to update legacy charge shadow",
			ports.Int64("legacy_consumer_charge_id", intent.LegacyConsumerChargeID),
			ports.Err(err))
		return
	}
	observability.RecordLegacyShadowWrite("success")
}

// remapGuardMiss converts the repository's NOT_FOUND on a guarded status
// update into a non-retryable invalid-state error for the caller.
func remapGuardMiss(err error, msg string) error {
	if domain.IsNotFound(err) {
		return domain.NewUpdateError(domain.ErrorCodeInvalidData, msg, false)
	}
	return err
}

func mapGatewayRefundStatus(s string) models.RefundStatus {
	switch s {
	case "succeeded":
		return models.RefundStatusSucceeded
	case "failed", "canceled", "cancelled":
		return models.RefundStatusFailed
	}
	return models.RefundStatusProcessing
}
