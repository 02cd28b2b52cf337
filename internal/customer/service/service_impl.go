package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hostbill/internal/clock"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	"github.com/smallbiznis/hostbill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParams struct {
	fx.In

	Logger     *zap.Logger
	DB         *gorm.DB
	Node       *snowflake.Node
	Clock      clock.Clock
	Repository customerdomain.Repository
}

type customerService struct {
	log   *zap.Logger
	db    *gorm.DB
	node  *snowflake.Node
	clock clock.Clock
	repo  customerdomain.Repository
}

func NewService(p ServiceParams) customerdomain.Service {
	return &customerService{
		log:   p.Logger.Named("customer.service"),
		db:    p.DB,
		node:  p.Node,
		clock: p.Clock,
		repo:  p.Repository,
	}
}

func (s *customerService) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return customerdomain.Customer{}, customerdomain.ErrInvalidEmail
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidName
	}

	now := s.clock.Now().UTC()
	customer := customerdomain.Customer{
		ID:        s.node.Generate(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return customerdomain.Customer{}, customerdomain.ErrDuplicateEmail
		}
		return customerdomain.Customer{}, err
	}

	s.log.Info("customer_created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *customerService) GetByID(ctx context.Context, id snowflake.ID) (customerdomain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return customerdomain.Customer{}, err
	}
	if customer == nil {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	return *customer, nil
}

func (s *customerService) SetDefaultPaymentMethod(ctx context.Context, id snowflake.ID, paymentMethodID string) (customerdomain.Customer, error) {
	paymentMethodID = strings.TrimSpace(paymentMethodID)
	if paymentMethodID == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidMethod
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return customerdomain.Customer{}, err
	}
	if existing == nil {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}

	if err := s.repo.UpdateDefaultPaymentMethod(ctx, s.db, id, paymentMethodID); err != nil {
		return customerdomain.Customer{}, err
	}

	// Update-then-verify: re-read and report whichever value won.
	updated, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return customerdomain.Customer{}, err
	}
	if updated == nil {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	if updated.DefaultPaymentMethodID == nil || *updated.DefaultPaymentMethodID != paymentMethodID {
		s.log.Warn("default_payment_method_race",
			zap.String("customer_id", id.String()),
			zap.String("requested", paymentMethodID),
		)
	}
	return *updated, nil
}

func (s *customerService) AttachGatewayCustomer(ctx context.Context, id snowflake.ID, gatewayCustomerID string) error {
	gatewayCustomerID = strings.TrimSpace(gatewayCustomerID)
	if gatewayCustomerID == "" {
		return customerdomain.ErrInvalidMethod
	}
	return s.repo.UpdateGatewayCustomerID(ctx, s.db, id, gatewayCustomerID)
}
