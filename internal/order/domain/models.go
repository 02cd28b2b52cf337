// Package domain defines the order workflow contract: the contracting
// request, its outcome, and the attempt record used for reconciliation.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "PENDING"
	AttemptConfirmed AttemptStatus = "CONFIRMED"
	AttemptCommitted AttemptStatus = "COMMITTED"
	AttemptFailed    AttemptStatus = "FAILED"
)

// OrderAttempt is written before the gateway is charged and resolved
// afterwards. A CONFIRMED attempt that never reaches COMMITTED marks money
// moved without provisioned rows; reconciliation works off this table.
type OrderAttempt struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID  `gorm:"not null;index:ix_order_attempts_customer" json:"customer_id"`
	PlanID          snowflake.ID  `gorm:"not null" json:"plan_id"`
	AmountCents     int64         `gorm:"not null" json:"amount_cents"`
	Currency        string        `gorm:"type:text;not null" json:"currency"`
	GatewayIntentID *string       `gorm:"type:text" json:"gateway_intent_id,omitempty"`
	Status          AttemptStatus `gorm:"type:text;not null" json:"status"`
	FailureReason   *string       `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (OrderAttempt) TableName() string { return "order_attempts" }

// TaxInvoiceRequest is the optional CFDI block a buyer submits with an order.
type TaxInvoiceRequest struct {
	RFC        string  `json:"rfc"`
	Name       string  `json:"name"`
	Zip        string  `json:"zip"`
	Regimen    string  `json:"regimen"`
	UsoCFDI    string  `json:"uso_cfdi"`
	Constancia *string `json:"constancia,omitempty"`
}

// PlaceOrderRequest is the typed contracting request. PlanID carries the
// plan slug; AddOns carry add-on ids. Exactly one of PaymentIntentID and
// PaymentMethodID must be set.
type PlaceOrderRequest struct {
	CustomerID         string             `json:"customer_id"`
	PlanID             string             `json:"plan_id"`
	BillingCycle       string             `json:"billing_cycle"`
	ServiceName        string             `json:"service_name"`
	Domain             *string            `json:"domain,omitempty"`
	PaymentIntentID    string             `json:"payment_intent_id,omitempty"`
	PaymentMethodID    string             `json:"payment_method_id,omitempty"`
	AddOns             []string           `json:"add_ons,omitempty"`
	Invoice            *TaxInvoiceRequest `json:"invoice,omitempty"`
	CreateSubscription bool               `json:"create_subscription,omitempty"`
}

// PlaceOrderResponse is the committed order.
type PlaceOrderResponse struct {
	Service hostingdomain.Service        `json:"service"`
	AddOns  []hostingdomain.ServiceAddOn `json:"add_ons,omitempty"`
	Invoice invoicedomain.Invoice        `json:"invoice"`
	Items   []invoicedomain.InvoiceItem  `json:"items"`
}

type Service interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error)
}

type AttemptRepository interface {
	Insert(ctx context.Context, db *gorm.DB, attempt *OrderAttempt) error
	Update(ctx context.Context, db *gorm.DB, attempt *OrderAttempt) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*OrderAttempt, error)
}

var (
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrCustomerNotFound     = errors.New("order_customer_not_found")
	ErrPlanNotFound         = errors.New("order_plan_not_found")
	ErrPlanInactive         = errors.New("order_plan_inactive")
	ErrInvalidServiceName   = errors.New("invalid_service_name")
	ErrInvalidAddOn         = errors.New("invalid_addon")
	ErrAddOnNotAllowed      = errors.New("addon_not_allowed")
	ErrDuplicateAddOn       = errors.New("duplicate_addon")
	ErrPaymentReference     = errors.New("exactly_one_payment_reference_required")
	ErrDuplicatePayment     = errors.New("duplicate_payment_intent")
	ErrIncompleteTaxProfile = errors.New("incomplete_tax_profile")
)

// PersistenceError marks a failure after the charge settled: the dangerous
// case where money moved but no rows committed.
type PersistenceError struct {
	IntentID string
	Err      error
}

func (e *PersistenceError) Error() string { return "order_persistence_failed" }

func (e *PersistenceError) Unwrap() error { return e.Err }
