package domain

// PayerIDType identifies which identity space a caller-supplied payer id
// belongs to. The same raw string could parse in more than one space, so
// lookups always carry an explicit type. An empty value defaults to the
// current schema (PayerIDTypePayerID).
type PayerIDType string

const (
	PayerIDTypePayerID              PayerIDType = "dd_payer_id"
	PayerIDTypeConsumerID           PayerIDType = "dd_consumer_id"
	PayerIDTypeStripeCustomerID     PayerIDType = "stripe_customer_id"
	PayerIDTypeStripeCustomerSerial PayerIDType = "stripe_customer_serial_id"
)

// CurrentSchema reports whether this id type resolves against the current
// (payment DB) schema as opposed to the legacy main DB schema.
func (t PayerIDType) CurrentSchema() bool {
	switch t {
	case "", PayerIDTypePayerID, PayerIDTypeConsumerID:
		return true
	case PayerIDTypeStripeCustomerID, PayerIDTypeStripeCustomerSerial:
		return false
	}
	return false
}

// Valid reports whether the id type is a member of the closed enumeration.
func (t PayerIDType) Valid() bool {
	switch t {
	case "", PayerIDTypePayerID, PayerIDTypeConsumerID,
		PayerIDTypeStripeCustomerID, PayerIDTypeStripeCustomerSerial:
		return true
	}
	return false
}

// PaymentMethodIDType identifies the identity space of a payment-method id.
type PaymentMethodIDType string

const (
	PaymentMethodIDTypePaymentMethodID  PaymentMethodIDType = "payment_method_id"
	PaymentMethodIDTypeStripeCardID     PaymentMethodIDType = "stripe_payment_method_id"
	PaymentMethodIDTypeStripeCardSerial PaymentMethodIDType = "dd_stripe_card_serial_id"
)

// PayerType identifies the owner type of a payer; marketplace payers live in
// the current schema, everything else predates it.
type PayerType string

const (
	PayerTypeMarketplace PayerType = "marketplace"
	PayerTypeStore       PayerType = "store"
	PayerTypeBusiness    PayerType = "business"
)

// PgpCode names the payment gateway provider backing a pgp-prefixed record.
type PgpCode string

const (
	PgpCodeStripe PgpCode = "stripe"
)

// CountryCode is an ISO 3166-1 alpha-2 country for gateway client selection.
type CountryCode string

const (
	CountryUS CountryCode = "US"
	CountryCA CountryCode = "CA"
	CountryAU CountryCode = "AU"
)

// CancellationReason is the enumerated reason passed to the gateway when an
// intent is cancelled before capture.
type CancellationReason string

const (
	CancellationReasonRequestedByCustomer CancellationReason = "requested_by_customer"
	CancellationReasonAbandoned           CancellationReason = "abandoned"
	CancellationReasonFraudulent          CancellationReason = "fraudulent"
	CancellationReasonDuplicate           CancellationReason = "duplicate"
)

// Valid reports whether the reason is a member of the closed enumeration.
func (r CancellationReason) Valid() bool {
	switch r {
	case CancellationReasonRequestedByCustomer, CancellationReasonAbandoned,
		CancellationReasonFraudulent, CancellationReasonDuplicate:
		return true
	}
	return false
}

// CaptureMethod controls whether the gateway captures immediately or waits
// for an explicit capture call.
type CaptureMethod string

const (
	CaptureMethodAuto   CaptureMethod = "auto"
	CaptureMethodManual CaptureMethod = "manual"
)
