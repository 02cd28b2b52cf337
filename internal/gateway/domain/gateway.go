// Package domain defines the card-gateway contract used by the order
// workflow. Implementations live in sibling packages (stripe).
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Card is the minimal card metadata persisted alongside a transaction.
type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

// EnsureCustomerRequest creates or reuses a gateway-side customer record.
type EnsureCustomerRequest struct {
	GatewayCustomerID string
	Email             string
	Name              string
}

// ConfirmPaymentRequest charges a card for an order total. Exactly one of
// PaymentIntentID (client already confirmed) or PaymentMethodID (server
// confirms off-session) must be set.
type ConfirmPaymentRequest struct {
	AmountCents       int64
	Currency          string
	GatewayCustomerID string
	PaymentIntentID   string
	PaymentMethodID   string
	SavePaymentMethod bool
	IdempotencyKey    string
	Metadata          map[string]string
}

// PaymentResult reports a settled charge.
type PaymentResult struct {
	IntentID        string
	Status          string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	Card            Card
}

type Gateway interface {
	EnsureCustomer(ctx context.Context, req EnsureCustomerRequest) (string, error)
	ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (PaymentResult, error)
}

var (
	ErrInvalidConfig      = errors.New("gateway_invalid_config")
	ErrIntentNotFound     = errors.New("payment_intent_not_found")
	ErrAmountMismatch     = errors.New("payment_amount_mismatch")
	ErrPaymentMethodInUse = errors.New("payment_method_in_use")
)

// ActionRequiredError is returned when the gateway demands additional
// client-side authentication (3-D Secure). The client secret lets the
// frontend resume the flow.
type ActionRequiredError struct {
	IntentID     string
	ClientSecret string
}

func (e *ActionRequiredError) Error() string { return "payment_action_required" }

// CardDeclinedError is a terminal decline for the attempted charge.
type CardDeclinedError struct {
	IntentID string
	Code     string
	Message  string
}

func (e *CardDeclinedError) Error() string {
	if e.Code != "" {
		return "card_declined: " + e.Code
	}
	return "card_declined"
}

// Error is any other gateway-side failure.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway_error status=%d code=%s message=%s", e.Status, e.Code, e.Message)
}
