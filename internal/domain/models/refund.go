package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
)

// RefundStatus is the sub-state-machine of one refund row:
// PROCESSING -> SUCCEEDED, with FAILED reachable from PROCESSING.
type RefundStatus string

const (
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusSucceeded  RefundStatus = "succeeded"
	RefundStatusFailed     RefundStatus = "failed"
)

// Refund is one refund against a captured payment intent.
type Refund struct {
	ID              uuid.UUID
	PaymentIntentID uuid.UUID
	IdempotencyKey  string
	Status          RefundStatus
	Amount          int64
	Reason          *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PgpRefund mirrors the gateway's refund resource for a Refund.
type PgpRefund struct {
	ID             uuid.UUID
	RefundID       uuid.UUID
	IdempotencyKey string
	Status         RefundStatus
	PgpCode        domain.PgpCode
	PgpResourceID  *string
	Amount         int64
	Reason         *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
