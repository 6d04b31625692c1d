package payer

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/models"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// Service resolves payer handles across the two schemas and owns payer
// provisioning against the gateway.
type Service struct {
	repo    ports.PayerRepository
	gateway ports.PaymentGateway
	logger  ports.Logger
}

// NewService creates a new payer service
func NewService(repo ports.PayerRepository, gateway ports.PaymentGateway, logger ports.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
	}
}

// CreatePayerRequest carries the inputs for provisioning a new payer.
type CreatePayerRequest struct {
	DDPayerID   string
	PayerType   domain.PayerType
	Email       string
	Country     domain.CountryCode
	Description string
}

// CreatePayer provisions a gateway customer and persists the payer pair.
// The owner id must be numeric; that is checked before any gateway or
// database call so a malformed request has no side effects.
func (s *Service) CreatePayer(ctx context.Context, req *CreatePayerRequest) (*models.RawPayer, error) {
	if _, err := strconv.ParseInt(req.DDPayerID, 10, 64); err != nil {
		return nil, domain.NewCreationError(domain.ErrorCodeInvalidData,
			"dd_payer_id must be numeric", false)
	}

	// A payer may already exist for this owner and type. Creation proceeds
	// anyway; downstream resolution always picks the oldest row.
	if existing, err := s.repo.GetPayerByDDPayerIDAndType(ctx, nil, req.DDPayerID, string(req.PayerType)); err == nil {
		s.logger.Warn("payer already exists for owner",
			ports.String("dd_payer_id", req.DDPayerID),
			ports.String("payer_type", string(req.PayerType)),
			ports.String("existing_payer_id", existing.ID.String()))
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	customer, err := s.gateway.CreateCustomer(ctx, &ports.CreateCustomerRequest{
		Country:     req.Country,
		Email:       req.Email,
		Description: req.Description,
	})
	if err != nil {
		s.logger.Error("gateway customer creation failed",
			ports.String("dd_payer_id", req.DDPayerID),
			ports.Err(err))
		return nil, err
	}

	now := time.Now()
	payerRow := &models.Payer{
		ID:                     uuid.New(),
		PayerType:              req.PayerType,
		DDPayerID:              req.DDPayerID,
		LegacyStripeCustomerID: customer.ResourceID,
		Country:                req.Country,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if req.Description != "" {
		desc := req.Description
		payerRow.Description = &desc
	}
	pgpCustomer := &models.PgpCustomer{
		ID:            uuid.New(),
		PayerID:       payerRow.ID,
		PgpCode:       domain.PgpCodeStripe,
		PgpResourceID: customer.ResourceID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	insertedPayer, insertedPgp, err := s.repo.InsertPayerAndPgpCustomer(ctx, payerRow, pgpCustomer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payer created",
		ports.String("payer_id", insertedPayer.ID.String()),
		ports.String("dd_payer_id", req.DDPayerID),
		ports.String("country", string(req.Country)))

	return &models.RawPayer{
		PayerEntity:       insertedPayer,
		PgpCustomerEntity: insertedPgp,
	}, nil
}

// GetRawPayer resolves a payer handle into the aggregate of its schema
// representations. The id type selects the schema strategy once; an
// unrecognized type fails before any store is touched.
func (s *Service) GetRawPayer(ctx context.Context, id string, idType domain.PayerIDType, payerType domain.PayerType) (*models.RawPayer, error) {
	ops, err := s.opsFor(idType)
	if err != nil {
		return nil, err
	}
	return ops.resolve(ctx, id, payerType)
}

// UpdateDefaultPaymentMethod sets the payer's default payment method at the
// gateway and mirrors it into whichever schema rows back the payer. When a
// legacy-schema update succeeds without a current-schema mirror, one is
// lazily created.
func (s *Service) UpdateDefaultPaymentMethod(ctx context.Context, id string, idType domain.PayerIDType, payerType domain.PayerType, pm *models.RawPaymentMethod) (*models.RawPayer, error) {
	ops, err := s.opsFor(idType)
	if err != nil {
		return nil, err
	}

	raw, err := ops.resolve(ctx, id, payerType)
	if err != nil {
		return nil, err
	}

	updated, err := ops.updateDefaultPaymentMethod(ctx, raw, pm)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payer default payment method updated",
		ports.String("payer_id", id),
		ports.String("payer_id_type", string(idType)),
		ports.String("payment_method", pm.PgpResourceID()))

	return updated, nil
}

func (s *Service) opsFor(idType domain.PayerIDType) (payerOps, error) {
	if !idType.Valid() {
		return nil, domain.NewReadError(domain.ErrorCodeInvalidData,
			"unrecognized payer id type", false)
	}
	if idType.CurrentSchema() {
		return &currentSchemaOps{repo: s.repo, gateway: s.gateway, logger: s.logger}, nil
	}
	return &legacySchemaOps{
		repo:    s.repo,
		gateway: s.gateway,
		logger:  s.logger,
		serial:  idType == domain.PayerIDTypeStripeCustomerSerial,
	}, nil
}
