package paymentmethod

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// Service resolves caller-supplied payment-method handles into immutable
// RawPaymentMethod aggregates. A handle is an (id, id type) pair; the id type
// names the identity space, so the same raw string never resolves through
// more than one path.
type Service struct {
	repo   ports.PaymentMethodRepository
	logger ports.Logger
}

// NewService creates a new payment method service
func NewService(repo ports.PaymentMethodRepository, logger ports.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetRawPaymentMethod resolves a payment-method handle into the aggregate of
// its schema representations. Resolution loads the current-schema row, the
// legacy row, or both, depending on where the id type points and what the
// stores actually hold.
func (s *Service) GetRawPaymentMethod(ctx context.Context, id string, idType domain.PaymentMethodIDType) (*models.RawPaymentMethod, error) {
	switch idType {
	case "", domain.PaymentMethodIDTypePaymentMethodID:
		return s.resolveByPaymentMethodID(ctx, id)
	case domain.PaymentMethodIDTypeStripeCardID:
		return s.resolveByStripeID(ctx, id)
	case domain.PaymentMethodIDTypeStripeCardSerial:
		return s.resolveBySerialID(ctx, id)
	}
	return nil, domain.NewReadError(domain.ErrorCodeInvalidData,
		"unrecognized payment method id type", false)
}

func (s *Service) resolveByPaymentMethodID(ctx context.Context, id string) (*models.RawPaymentMethod, error) {
	pmID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.NewReadError(domain.ErrorCodeInvalidData,
			"payment method id is not a uuid", false)
	}

	pgpPM, err := s.repo.GetPgpPaymentMethodByID(ctx, nil, pmID)
	if err != nil {
		return nil, err
	}

	raw := &models.RawPaymentMethod{PgpPaymentMethodEntity: pgpPM}

	// The legacy card shadow is optional; current-schema-only methods never
	// had one.
	card, err := s.repo.GetStripeCardByStripeID(ctx, nil, pgpPM.PgpResourceID)
	if err == nil {
		raw.StripeCardEntity = card
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	return raw, nil
}

func (s *Service) resolveByStripeID(ctx context.Context, id string) (*models.RawPaymentMethod, error) {
	raw := &models.RawPaymentMethod{}

	pgpPM, err := s.repo.GetPgpPaymentMethodByResourceID(ctx, nil, id)
	if err == nil {
		raw.PgpPaymentMethodEntity = pgpPM
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	card, err := s.repo.GetStripeCardByStripeID(ctx, nil, id)
	if err == nil {
		raw.StripeCardEntity = card
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	if raw.PgpPaymentMethodEntity == nil && raw.StripeCardEntity == nil {
		return nil, domain.NewReadError(domain.ErrorCodeNotFound,
			"payment method not found", false)
	}
	return raw, nil
}

func (s *Service) resolveBySerialID(ctx context.Context, id string) (*models.RawPaymentMethod, error) {
	serialID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, domain.NewReadError(domain.ErrorCodeInvalidData,
			"payment method serial id is not numeric", false)
	}

	card, err := s.repo.GetStripeCardBySerialID(ctx, nil, serialID)
	if err != nil {
		return nil, err
	}

	raw := &models.RawPaymentMethod{StripeCardEntity: card}

	pgpPM, err := s.repo.GetPgpPaymentMethodByResourceID(ctx, nil, card.StripeID)
	if err == nil {
		raw.PgpPaymentMethodEntity = pgpPM
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	return raw, nil
}

// ListPayerCards returns the active legacy cards of a consumer, newest first.
func (s *Service) ListPayerCards(ctx context.Context, consumerID int64) ([]*models.LegacyStripeCard, error) {
	return s.repo.ListStripeCardsByConsumerID(ctx, nil, consumerID)
}
