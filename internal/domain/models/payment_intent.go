package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
)

// IntentStatus is the lifecycle state of a payment intent. Transitions are
// monotonic: INITIATED -> REQUIRES_CAPTURE -> CAPTURED, with CANCELLED
// reachable from INITIATED or REQUIRES_CAPTURE and FAILED from INITIATED.
type IntentStatus string

const (
	IntentStatusInitiated       IntentStatus = "init"
	IntentStatusRequiresCapture IntentStatus = "requires_capture"
	IntentStatusCaptured        IntentStatus = "captured"
	IntentStatusCancelled       IntentStatus = "cancelled"
	IntentStatusFailed          IntentStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s IntentStatus) Terminal() bool {
	switch s {
	case IntentStatusCaptured, IntentStatusCancelled, IntentStatusFailed:
		return true
	}
	return false
}

// PaymentIntent is the unit of gateway interaction for one
// authorization/capture cycle. AmountInitiated is an immutable snapshot of
// the amount at creation; Amount changes only through adjustments.
type PaymentIntent struct {
	ID                     uuid.UUID
	CartPaymentID          uuid.UUID
	IdempotencyKey         string
	AmountInitiated        int64
	Amount                 int64
	ApplicationFeeAmount   *int64
	CaptureMethod          domain.CaptureMethod
	Country                domain.CountryCode
	Currency               string
	Status                 IntentStatus
	StatementDescriptor    *string
	PaymentMethodID        uuid.UUID
	LegacyConsumerChargeID int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
	CapturedAt             *time.Time
	CancelledAt            *time.Time
	CaptureAfter           *time.Time
}

// CanBeCaptured reports whether a capture call is valid for this intent.
func (i *PaymentIntent) CanBeCaptured() bool {
	return i.Status == IntentStatusRequiresCapture
}

// CanBeCancelled reports whether a cancel call is valid for this intent.
func (i *PaymentIntent) CanBeCancelled() bool {
	return i.Status == IntentStatusInitiated || i.Status == IntentStatusRequiresCapture
}

// CanBeAdjusted reports whether the amount may still change.
func (i *PaymentIntent) CanBeAdjusted() bool {
	return i.Status == IntentStatusInitiated || i.Status == IntentStatusRequiresCapture
}

// CanBeRefunded reports whether a refund call is valid for this intent.
func (i *PaymentIntent) CanBeRefunded() bool {
	return i.Status == IntentStatusCaptured
}

// PgpPaymentIntent mirrors the gateway's view of a PaymentIntent, one-to-one
// with its owner. Its status must never be ahead of the owning intent's
// status in the lifecycle ordering; reconciliation closes observed gaps.
type PgpPaymentIntent struct {
	ID                      uuid.UUID
	PaymentIntentID         uuid.UUID
	IdempotencyKey          string
	PgpCode                 domain.PgpCode
	ResourceID              string
	Status                  IntentStatus
	ChargeResourceID        *string
	PaymentMethodResourceID string
	CustomerResourceID      *string
	Currency                string
	Amount                  int64
	AmountCapturable        *int64
	AmountReceived          *int64
	ApplicationFeeAmount    *int64
	PayoutAccountID         *string
	CaptureMethod           domain.CaptureMethod
	CreatedAt               time.Time
	UpdatedAt               time.Time
	CapturedAt              *time.Time
	CancelledAt             *time.Time
}

// PaymentIntentAdjustmentHistory is an append-only record of one amount
// change. Rows are never updated or deleted.
type PaymentIntentAdjustmentHistory struct {
	ID              uuid.UUID
	PayerID         uuid.UUID
	PaymentIntentID uuid.UUID
	Amount          int64
	AmountOriginal  int64
	AmountDelta     int64
	Currency        string
	IdempotencyKey  string
	CreatedAt       time.Time
}
