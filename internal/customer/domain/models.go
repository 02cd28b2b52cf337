// Package domain contains the customer account model and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is a billing account. GatewayCustomerID is created lazily on the
// first charge and reused afterwards.
type Customer struct {
	ID                     snowflake.ID `gorm:"primaryKey" json:"id"`
	Email                  string       `gorm:"type:text;not null;uniqueIndex:ux_customers_email" json:"email"`
	Name                   string       `gorm:"type:text;not null" json:"name"`
	GatewayCustomerID      *string      `gorm:"type:text" json:"gateway_customer_id,omitempty"`
	DefaultPaymentMethodID *string      `gorm:"type:text" json:"default_payment_method_id,omitempty"`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
