package models

import (
	"time"
)

// LegacyStripeChargeStatus mirrors the status values the pre-rewrite system
// stores on its charge shadow rows.
type LegacyStripeChargeStatus string

const (
	LegacyStripeChargeStatusSucceeded LegacyStripeChargeStatus = "succeeded"
	LegacyStripeChargeStatusFailed    LegacyStripeChargeStatus = "failed"
	LegacyStripeChargeStatusRefunded  LegacyStripeChargeStatus = "refunded"
)

// LegacyConsumerCharge is the main-DB shadow record the pre-rewrite system
// reads. One is created alongside each payment intent whose payer was
// provisioned before the payment DB existed, or whose id type indicates
// legacy lookup. Its serial id bridges the intent to the legacy schema.
type LegacyConsumerCharge struct {
	ID               int64
	TargetID         int64
	TargetCtID       int64
	IdempotencyKey   string
	Total            int64
	OriginalTotal    int64
	Currency         string
	CountryID        int64
	StripeCustomerID *int64
	CreatedAt        time.Time
}

// LegacyStripeCharge is the main-DB shadow of a gateway charge. Amounts in
// the legacy schema are stored as NUMERIC major units, converted at the
// repository boundary.
type LegacyStripeCharge struct {
	ID             int64
	Amount         int64
	AmountRefunded int64
	Currency       string
	Status         LegacyStripeChargeStatus
	ErrorReason    *string
	Description    *string
	IdempotencyKey string
	CardID         *int64
	ChargeID       int64
	StripeID       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	RefundedAt     *time.Time
}
