package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
)

// Payer is the current-schema payer record in the payment DB.
type Payer struct {
	ID                     uuid.UUID
	PayerType              domain.PayerType
	DDPayerID              string
	LegacyStripeCustomerID string
	Country                domain.CountryCode
	Description            *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
	DeletedAt              *time.Time
}

// PgpCustomer is the gateway-mirror half of a current-schema payer.
type PgpCustomer struct {
	ID                     uuid.UUID
	PayerID                uuid.UUID
	PgpCode                domain.PgpCode
	PgpResourceID          string
	DefaultPaymentMethodID *string
	Currency               *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// LegacyStripeCustomer is the main-DB customer row the pre-rewrite system
// owns. OwnerID is the legacy consumer serial id.
type LegacyStripeCustomer struct {
	ID               int64
	StripeID         string
	CountryShortname string
	OwnerType        string
	OwnerID          int64
	DefaultCard      *string
	DefaultSource    *string
}

// RawPayer aggregates the schema representations that may back one payer:
// current-schema rows (Payer + PgpCustomer), a legacy-schema row
// (LegacyStripeCustomer), or both. The aggregate is immutable; deriving a
// changed aggregate produces a new value.
type RawPayer struct {
	PayerEntity          *Payer
	PgpCustomerEntity    *PgpCustomer
	StripeCustomerEntity *LegacyStripeCustomer
}

// WithPgpCustomer returns a copy of the aggregate with the pgp customer
// snapshot replaced.
func (r RawPayer) WithPgpCustomer(pc *PgpCustomer) RawPayer {
	r.PgpCustomerEntity = pc
	return r
}

// WithStripeCustomer returns a copy of the aggregate with the legacy
// customer snapshot replaced.
func (r RawPayer) WithStripeCustomer(sc *LegacyStripeCustomer) RawPayer {
	r.StripeCustomerEntity = sc
	return r
}

// PgpCustomerResourceID returns the gateway customer resource id from
// whichever representation holds it.
func (r RawPayer) PgpCustomerResourceID() string {
	if r.PgpCustomerEntity != nil {
		return r.PgpCustomerEntity.PgpResourceID
	}
	if r.StripeCustomerEntity != nil {
		return r.StripeCustomerEntity.StripeID
	}
	if r.PayerEntity != nil {
		return r.PayerEntity.LegacyStripeCustomerID
	}
	return ""
}

// Country returns the payer country from whichever representation holds it.
func (r RawPayer) Country() domain.CountryCode {
	if r.PayerEntity != nil {
		return r.PayerEntity.Country
	}
	if r.StripeCustomerEntity != nil {
		return domain.CountryCode(r.StripeCustomerEntity.CountryShortname)
	}
	return ""
}
