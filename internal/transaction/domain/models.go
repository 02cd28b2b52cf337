// Package domain contains the payment transaction record. The gateway
// intent id carries a unique index: it is the idempotency key that keeps a
// re-submitted intent from producing a second order.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "COMPLETED"
)

type Transaction struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID      `gorm:"not null;index:ix_transactions_customer" json:"customer_id"`
	InvoiceID       snowflake.ID      `gorm:"not null" json:"invoice_id"`
	GatewayIntentID string            `gorm:"type:text;not null;uniqueIndex:ux_transactions_intent" json:"gateway_intent_id"`
	PaymentMethodID string            `gorm:"type:text" json:"payment_method_id,omitempty"`
	AmountCents     int64             `gorm:"not null" json:"amount_cents"`
	Currency        string            `gorm:"type:text;not null" json:"currency"`
	Status          TransactionStatus `gorm:"type:text;not null" json:"status"`
	CardMetadata    datatypes.JSONMap `gorm:"type:jsonb" json:"card_metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, transaction *Transaction) error
	FindByIntentID(ctx context.Context, db *gorm.DB, intentID string) (*Transaction, error)
}

var ErrDuplicateIntent = errors.New("duplicate_gateway_intent")
