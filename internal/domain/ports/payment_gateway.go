package ports

import (
	"context"

	"github.com/kevin07696/payin-service/internal/domain"
)

// CreateIntentRequest asks the gateway to open a new payment intent.
// Identical idempotency keys must return the original result without a
// duplicate side effect; the state machine depends on that contract.
type CreateIntentRequest struct {
	Amount                  int64
	Currency                string
	Country                 domain.CountryCode
	CustomerResourceID      string
	PaymentMethodResourceID string
	CaptureMethod           domain.CaptureMethod
	Confirm                 bool
	StatementDescriptor     string
	PayoutAccountID         string
	ApplicationFeeAmount    int64
	IdempotencyKey          string
}

// IntentResult is the gateway's view of an intent after a call.
type IntentResult struct {
	ResourceID       string
	ChargeResourceID string
	Status           string
	Amount           int64
	AmountCapturable int64
	AmountReceived   int64
}

// CaptureIntentRequest captures a previously confirmed intent, possibly for
// less than the authorized amount.
type CaptureIntentRequest struct {
	ResourceID      string
	Country         domain.CountryCode
	AmountToCapture int64
	IdempotencyKey  string
}

// CancelIntentRequest cancels an intent before capture.
type CancelIntentRequest struct {
	ResourceID string
	Country    domain.CountryCode
	Reason     domain.CancellationReason
}

// RefundChargeRequest refunds all or part of a captured charge.
type RefundChargeRequest struct {
	ChargeResourceID string
	Country          domain.CountryCode
	Amount           int64
	Reason           string
	IdempotencyKey   string
}

// RefundResult is the gateway's view of a refund after the synchronous call.
type RefundResult struct {
	ResourceID string
	Status     string
	Amount     int64
}

// CreateCustomerRequest provisions a gateway customer for a new payer.
type CreateCustomerRequest struct {
	Country     domain.CountryCode
	Email       string
	Description string
}

// CustomerResult is the gateway's view of a customer.
type CustomerResult struct {
	ResourceID             string
	DefaultPaymentMethodID string
}

// PaymentGateway is the boundary with the external card-processing provider.
// All calls are synchronous request/response; gateway-side idempotency keys
// make retried calls side-effect free.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*IntentResult, error)
	CaptureIntent(ctx context.Context, req *CaptureIntentRequest) (*IntentResult, error)
	CancelIntent(ctx context.Context, req *CancelIntentRequest) (*IntentResult, error)
	RefundCharge(ctx context.Context, req *RefundChargeRequest) (*RefundResult, error)

	// Thin customer wrappers used by the payer resolution layer. Their
	// correctness is delegated to the provider contract.
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResult, error)
	UpdateCustomerDefaultPaymentMethod(ctx context.Context, country domain.CountryCode, customerResourceID, paymentMethodResourceID string) (*CustomerResult, error)
}
