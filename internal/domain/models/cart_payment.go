package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
)

// CorrelationIDs tie a cart payment back to the business object that
// requested it (an order, a subscription invoice, etc.).
type CorrelationIDs struct {
	ReferenceID   string
	ReferenceType string
}

// SplitPayment routes part of a charge to a connected payout account.
type SplitPayment struct {
	PayoutAccountID      string
	ApplicationFeeAmount int64
}

// CartPayment is the top-level payment request grouping one or more payment
// intents. Amount must equal the sum of its active intents' amounts at any
// settled state.
type CartPayment struct {
	ID                        uuid.UUID
	Amount                    int64
	PayerID                   uuid.UUID
	PaymentMethodID           uuid.UUID
	DelayCapture              bool
	CorrelationIDs            CorrelationIDs
	ClientDescription         *string
	PayerStatementDescription *string
	SplitPayment              *SplitPayment
	Country                   domain.CountryCode
	Currency                  string
	CaptureAfter              *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
	DeletedAt                 *time.Time
}

// CartPaymentList is the envelope returned by list operations.
type CartPaymentList struct {
	Count   int
	HasMore bool
	Data    []*CartPayment
}
