package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateCustomerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id snowflake.ID) (Customer, error)
	// SetDefaultPaymentMethod flips the stored default with an
	// update-then-verify read so two concurrent flips converge on one value.
	SetDefaultPaymentMethod(ctx context.Context, id snowflake.ID, paymentMethodID string) (Customer, error)
	// AttachGatewayCustomer persists a lazily created gateway customer id.
	AttachGatewayCustomer(ctx context.Context, id snowflake.ID, gatewayCustomerID string) error
}

var (
	ErrNotFound       = errors.New("customer_not_found")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidMethod  = errors.New("invalid_payment_method")
	ErrDuplicateEmail = errors.New("duplicate_email")
)
