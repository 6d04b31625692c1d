package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
)

// ChargeStatus is the settlement state of a captured charge.
type ChargeStatus string

const (
	ChargeStatusRequiresCapture ChargeStatus = "requires_capture"
	ChargeStatusSucceeded       ChargeStatus = "succeeded"
	ChargeStatusFailed          ChargeStatus = "failed"
	ChargeStatusCancelled       ChargeStatus = "cancelled"
)

// PaymentCharge is a captured charge derived from a payment intent.
type PaymentCharge struct {
	ID                   uuid.UUID
	PaymentIntentID      uuid.UUID
	PgpCode              domain.PgpCode
	IdempotencyKey       string
	Status               ChargeStatus
	Currency             string
	Amount               int64
	AmountRefunded       int64
	ApplicationFeeAmount *int64
	PayoutAccountID      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CapturedAt           *time.Time
	CancelledAt          *time.Time
}

// PgpPaymentCharge mirrors the gateway's charge resource for a PaymentCharge.
type PgpPaymentCharge struct {
	ID                      uuid.UUID
	PaymentChargeID         uuid.UUID
	PgpCode                 domain.PgpCode
	IdempotencyKey          string
	Status                  ChargeStatus
	Currency                string
	Amount                  int64
	AmountRefunded          int64
	ApplicationFeeAmount    *int64
	PayoutAccountID         *string
	ResourceID              string
	IntentResourceID        string
	PaymentMethodResourceID *string
	CreatedAt               time.Time
	UpdatedAt               time.Time
	CapturedAt              *time.Time
	CancelledAt             *time.Time
}
