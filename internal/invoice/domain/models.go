// Package domain contains invoice persistence models and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type InvoiceStatus string

const (
	StatusPaid InvoiceStatus = "PAID"
	StatusVoid InvoiceStatus = "VOID"
)

type ItemKind string

const (
	ItemPlan  ItemKind = "plan"
	ItemAddOn ItemKind = "addon"
)

// Invoice records the amounts settled for one order. Orders always settle
// up front, so invoices are born PAID with the gateway intent as payment
// reference.
type Invoice struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	Number          string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_number" json:"number"`
	CustomerID      snowflake.ID  `gorm:"not null;index:ix_invoices_customer" json:"customer_id"`
	ServiceID       snowflake.ID  `gorm:"not null" json:"service_id"`
	Status          InvoiceStatus `gorm:"type:text;not null" json:"status"`
	SubtotalCents   int64         `gorm:"not null" json:"subtotal_cents"`
	TaxRateBps      int64         `gorm:"not null" json:"tax_rate_bps"`
	TaxCents        int64         `gorm:"not null" json:"tax_cents"`
	TotalCents      int64         `gorm:"not null" json:"total_cents"`
	Currency        string        `gorm:"type:text;not null" json:"currency"`
	GatewayIntentID string        `gorm:"type:text;not null" json:"gateway_intent_id"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one priced line: the plan or one add-on.
type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID `gorm:"not null;index:ix_invoice_items_invoice" json:"invoice_id"`
	Kind        ItemKind     `gorm:"type:text;not null" json:"kind"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Quantity    int64        `gorm:"not null;default:1" json:"quantity"`
	UnitCents   int64        `gorm:"not null" json:"unit_cents"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
