package payer

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
	"github.com/kevin07696/payin-service/pkg/observability"
)

// ownerTypeConsumer is the owner_type value legacy customer rows carry for
// marketplace consumers.
const ownerTypeConsumer = "consumer"

// payerOps is the schema-strategy boundary of payer resolution. The id type
// on the incoming handle selects one implementation at the resolution
// boundary; nothing downstream dispatches again.
type payerOps interface {
	resolve(ctx context.Context, id string, payerType domain.PayerType) (*models.RawPayer, error)
	updateDefaultPaymentMethod(ctx context.Context, raw *models.RawPayer, pm *models.RawPaymentMethod) (*models.RawPayer, error)
}

// currentSchemaOps resolves payers through the payment DB. Ids in this space
// are dd_payer_id (payment-DB uuid key space keyed by owner) and
// dd_consumer_id (legacy owner serial referenced through current-schema
// operations).
type currentSchemaOps struct {
	repo    ports.PayerRepository
	gateway ports.PaymentGateway
	logger  ports.Logger
}

func (o *currentSchemaOps) resolve(ctx context.Context, id string, payerType domain.PayerType) (*models.RawPayer, error) {
	var payerRow *models.Payer
	var err error
	if payerType != "" {
		payerRow, err = o.repo.GetPayerByDDPayerIDAndType(ctx, nil, id, string(payerType))
	} else {
		payerRow, err = o.repo.GetPayerByDDPayerID(ctx, nil, id)
	}
	if err != nil {
		if !domain.IsNotFound(err) {
			return nil, err
		}
		// No current-schema row yet. A consumer provisioned before the
		// payment DB existed still has a legacy customer keyed by owner id.
		return o.resolveLegacyFallback(ctx, id)
	}

	raw := &models.RawPayer{PayerEntity: payerRow}

	pgpCustomer, err := o.repo.GetPgpCustomerByPayerID(ctx, nil, payerRow.ID)
	if err == nil {
		raw.PgpCustomerEntity = pgpCustomer
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	if payerRow.LegacyStripeCustomerID != "" {
		sc, err := o.repo.GetStripeCustomerByStripeID(ctx, nil, payerRow.LegacyStripeCustomerID)
		if err == nil {
			raw.StripeCustomerEntity = sc
		} else if !domain.IsNotFound(err) {
			return nil, err
		}
	}

	return raw, nil
}

func (o *currentSchemaOps) resolveLegacyFallback(ctx context.Context, id string) (*models.RawPayer, error) {
	ownerID, parseErr := strconv.ParseInt(id, 10, 64)
	if parseErr != nil {
		return nil, domain.NewReadError(domain.ErrorCodeNotFound, "payer not found", false)
	}

	sc, err := o.repo.GetStripeCustomerByOwnerID(ctx, nil, ownerTypeConsumer, ownerID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewReadError(domain.ErrorCodeNotFound, "payer not found", false)
		}
		return nil, err
	}

	return &models.RawPayer{StripeCustomerEntity: sc}, nil
}

func (o *currentSchemaOps) updateDefaultPaymentMethod(ctx context.Context, raw *models.RawPayer, pm *models.RawPaymentMethod) (*models.RawPayer, error) {
	result, err := o.gateway.UpdateCustomerDefaultPaymentMethod(ctx, raw.Country(),
		raw.PgpCustomerResourceID(), pm.PgpResourceID())
	if err != nil {
		return nil, err
	}

	if raw.PgpCustomerEntity != nil {
		updated, err := o.repo.UpdatePgpCustomerDefaultPaymentMethod(ctx, nil,
			raw.PgpCustomerEntity.ID, result.DefaultPaymentMethodID)
		if err != nil {
			return nil, err
		}
		next := raw.WithPgpCustomer(updated)
		raw = &next
	}

	// Keep the legacy shadow in step when one exists so pre-rewrite readers
	// see the same default.
	if raw.StripeCustomerEntity != nil && pm.StripeCardEntity != nil {
		updated, err := o.repo.UpdateStripeCustomerDefaultCard(ctx, nil,
			raw.StripeCustomerEntity.ID, pm.StripeCardEntity.StripeID)
		if err != nil {
			return nil, err
		}
		next := raw.WithStripeCustomer(updated)
		raw = &next
	}

	return raw, nil
}

// legacySchemaOps resolves payers through the main DB. Ids in this space are
// the gateway customer id and the legacy customer serial id.
type legacySchemaOps struct {
	repo    ports.PayerRepository
	gateway ports.PaymentGateway
	logger  ports.Logger
	serial  bool
}

func (o *legacySchemaOps) resolve(ctx context.Context, id string, payerType domain.PayerType) (*models.RawPayer, error) {
	var sc *models.LegacyStripeCustomer
	var err error
	if o.serial {
		serialID, parseErr := strconv.ParseInt(id, 10, 64)
		if parseErr != nil {
			return nil, domain.NewReadError(domain.ErrorCodeInvalidData,
				"stripe customer serial id is not numeric", false)
		}
		sc, err = o.repo.GetStripeCustomerBySerialID(ctx, nil, serialID)
	} else {
		sc, err = o.repo.GetStripeCustomerByStripeID(ctx, nil, id)
	}
	if err != nil {
		return nil, err
	}

	raw := &models.RawPayer{StripeCustomerEntity: sc}

	// A current-schema mirror may have been lazily created on an earlier
	// reference; attach it when present.
	payerRow, err := o.repo.GetPayerByLegacyStripeCustomerID(ctx, nil, sc.StripeID)
	if err == nil {
		raw.PayerEntity = payerRow
		pgpCustomer, err := o.repo.GetPgpCustomerByPayerID(ctx, nil, payerRow.ID)
		if err == nil {
			raw.PgpCustomerEntity = pgpCustomer
		} else if !domain.IsNotFound(err) {
			return nil, err
		}
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	return raw, nil
}

func (o *legacySchemaOps) updateDefaultPaymentMethod(ctx context.Context, raw *models.RawPayer, pm *models.RawPaymentMethod) (*models.RawPayer, error) {
	result, err := o.gateway.UpdateCustomerDefaultPaymentMethod(ctx, raw.Country(),
		raw.PgpCustomerResourceID(), pm.PgpResourceID())
	if err != nil {
		return nil, err
	}

	if raw.StripeCustomerEntity != nil && pm.StripeCardEntity != nil {
		updated, err := o.repo.UpdateStripeCustomerDefaultCard(ctx, nil,
			raw.StripeCustomerEntity.ID, pm.StripeCardEntity.StripeID)
		if err != nil {
			return nil, err
		}
		next := raw.WithStripeCustomer(updated)
		raw = &next
	}

	// Lazy creation: a legacy-schema update that succeeds without a
	// current-schema mirror provisions one, so the next reference resolves
	// through the payment DB. A concurrent winner is fine; we read it back.
	if raw.PayerEntity == nil {
		migrated, err := o.lazyCreatePayer(ctx, raw, result.DefaultPaymentMethodID)
		if err != nil {
			return nil, err
		}
		raw = migrated
	} else if raw.PgpCustomerEntity != nil {
		updated, err := o.repo.UpdatePgpCustomerDefaultPaymentMethod(ctx, nil,
			raw.PgpCustomerEntity.ID, result.DefaultPaymentMethodID)
		if err != nil {
			return nil, err
		}
		next := raw.WithPgpCustomer(updated)
		raw = &next
	}

	return raw, nil
}

func (o *legacySchemaOps) lazyCreatePayer(ctx context.Context, raw *models.RawPayer, defaultPaymentMethodID string) (*models.RawPayer, error) {
	sc := raw.StripeCustomerEntity
	now := time.Now()

	payerRow := &models.Payer{
		ID:                     uuid.New(),
		PayerType:              domain.PayerTypeMarketplace,
		DDPayerID:              strconv.FormatInt(sc.OwnerID, 10),
		LegacyStripeCustomerID: sc.StripeID,
		Country:                domain.CountryCode(sc.CountryShortname),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	pgpCustomer := &models.PgpCustomer{
		ID:            uuid.New(),
		PayerID:       payerRow.ID,
		PgpCode:       domain.PgpCodeStripe,
		PgpResourceID: sc.StripeID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if defaultPaymentMethodID != "" {
		pgpCustomer.DefaultPaymentMethodID = &defaultPaymentMethodID
	}

	insertedPayer, insertedPgp, err := o.repo.InsertPayerAndPgpCustomer(ctx, payerRow, pgpCustomer)
	if err != nil {
		if domain.GetErrorCode(err) != domain.ErrorCodeAlreadyExists {
			return nil, err
		}
		// Lost the race to another lazy-create of the same customer.
		observability.RecordLazyPayerCreation("raced")
		o.logger.Info("payer already lazily created, reading existing",
			ports.String("stripe_customer_id", sc.StripeID))
		insertedPayer, err = o.repo.GetPayerByLegacyStripeCustomerID(ctx, nil, sc.StripeID)
		if err != nil {
			return nil, err
		}
		insertedPgp, err = o.repo.GetPgpCustomerByPayerID(ctx, nil, insertedPayer.ID)
		if err != nil && !domain.IsNotFound(err) {
			return nil, err
		}
	} else {
		observability.RecordLazyPayerCreation("created")
		o.logger.Info("lazily created payer for legacy customer",
			ports.String("payer_id", insertedPayer.ID.String()),
			ports.String("stripe_customer_id", sc.StripeID))
	}

	next := raw.WithPgpCustomer(insertedPgp)
	next.PayerEntity = insertedPayer
	return &next, nil
}
