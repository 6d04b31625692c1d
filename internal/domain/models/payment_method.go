package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
)

// PaymentMethod is the current-schema payment-method record.
type PaymentMethod struct {
	ID        uuid.UUID
	PayerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PgpPaymentMethod is the gateway-mirror half of a current-schema payment
// method.
type PgpPaymentMethod struct {
	ID               uuid.UUID
	PaymentMethodID  uuid.UUID
	PayerID          uuid.UUID
	PgpCode          domain.PgpCode
	PgpResourceID    string
	LegacyConsumerID *string
	Type             string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AttachedAt       *time.Time
	DetachedAt       *time.Time
	DeletedAt        *time.Time
}

// LegacyStripeCard is the main-DB card row owned by the pre-rewrite system.
type LegacyStripeCard struct {
	ID                 int64
	StripeID           string
	Fingerprint        string
	Last4              string
	DynamicLast4       string
	ExpMonth           string
	ExpYear            string
	Type               string
	Active             bool
	CountryOfOrigin    *string
	ConsumerID         *int64
	StripeCustomerID   *int64
	TokenizationMethod *string
	CreatedAt          time.Time
	RemovedAt          *time.Time
}

// RawPaymentMethod aggregates the schema representations that may back one
// payment method, in the same dual/legacy-shadow pattern as RawPayer.
type RawPaymentMethod struct {
	PgpPaymentMethodEntity *PgpPaymentMethod
	StripeCardEntity       *LegacyStripeCard
}

// PgpResourceID returns the gateway payment-method resource id from
// whichever representation holds it.
func (r RawPaymentMethod) PgpResourceID() string {
	if r.PgpPaymentMethodEntity != nil {
		return r.PgpPaymentMethodEntity.PgpResourceID
	}
	if r.StripeCardEntity != nil {
		return r.StripeCardEntity.StripeID
	}
	return ""
}

// LegacyStripeCardID returns the legacy serial id of the backing card, zero
// when the method exists only in the current schema.
func (r RawPaymentMethod) LegacyStripeCardID() int64 {
	if r.StripeCardEntity != nil {
		return r.StripeCardEntity.ID
	}
	return 0
}
