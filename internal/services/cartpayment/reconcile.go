package cartpayment

import (
	"context"
	"time"

	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
	"github.com/kevin07696/payin-service/pkg/observability"
)

// statusRank orders intent statuses along the lifecycle. Terminal states
// rank highest so reconciliation only ever advances, never regresses.
var statusRank = map[models.IntentStatus]int{
	models.IntentStatusInitiated:       0,
	models.IntentStatusRequiresCapture: 1,
	models.IntentStatusCaptured:        2,
	models.IntentStatusCancelled:       2,
	models.IntentStatusFailed:          2,
}

// reconcileIntent closes the gap left by a crash between the two local
// writes of an operation: when the gateway mirror is ahead of the intent
// row, the intent is advanced to match. The mirror is written inside the
// same transaction as the intent on every operation, so a gap can only
// mean an interrupted recovery replay; closing it here keeps reads
// consistent without waiting for the next replay.
func (s *Service) reconcileIntent(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	if intent.Status.Terminal() {
		return intent, nil
	}

	pgpIntent, err := s.intents.GetPgpIntentByIntentID(ctx, nil, intent.ID)
	if err != nil {
		return nil, err
	}
	if statusRank[pgpIntent.Status] <= statusRank[intent.Status] {
		return intent, nil
	}

	updated, err := s.intents.UpdateStatus(ctx, nil, intent.ID, intent.Status, pgpIntent.Status, time.Now())
	if err != nil {
		// A concurrent writer advanced the row first; re-read rather than
		// surface the guard miss.
		current, readErr := s.intents.GetByID(ctx, nil, intent.ID)
		if readErr != nil {
			return nil, readErr
		}
		return current, nil
	}

	observability.RecordIntentReconciliation(string(updated.Status))
	s.logger.Warn("reconciled payment intent with gateway mirror",
		ports.String("intent_id", intent.ID.String()),
		ports.String("from_status", string(intent.Status)),
		ports.String("to_status", string(updated.Status)))
	return updated, nil
}
