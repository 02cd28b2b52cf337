// Package domain contains the provisioned-service models: the hosted
// Service, its add-on snapshots and the optional CFDI tax profile.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ServiceStatus string

const (
	StatusActive    ServiceStatus = "ACTIVE"
	StatusSuspended ServiceStatus = "SUSPENDED"
	StatusCanceled  ServiceStatus = "CANCELED"
)

// Service is one provisioned hosting service. UnitPriceCents snapshots the
// plan's net monthly price at order time; later plan edits never reprice it.
type Service struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerID         snowflake.ID      `gorm:"not null;index:ix_services_customer" json:"customer_id"`
	PlanID             snowflake.ID      `gorm:"not null" json:"plan_id"`
	Name               string            `gorm:"type:text;not null" json:"name"`
	Domain             *string           `gorm:"type:text" json:"domain,omitempty"`
	UnitPriceCents     int64             `gorm:"not null" json:"unit_price_cents"`
	Currency           string            `gorm:"type:text;not null" json:"currency"`
	BillingCycle       string            `gorm:"type:text;not null" json:"billing_cycle"`
	Status             ServiceStatus     `gorm:"type:text;not null" json:"status"`
	NextDueAt          time.Time         `gorm:"not null" json:"next_due_at"`
	GatewayIntentID    string            `gorm:"type:text;not null" json:"gateway_intent_id"`
	CreateSubscription bool              `gorm:"not null;default:false" json:"create_subscription"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	SuspendedAt        *time.Time        `json:"suspended_at,omitempty"`
	CanceledAt         *time.Time        `json:"canceled_at,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Service) TableName() string { return "services" }

// ServiceAddOn snapshots one selected add-on's name and monthly price.
type ServiceAddOn struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ServiceID      snowflake.ID `gorm:"not null;index:ix_service_addons_service" json:"service_id"`
	AddOnID        snowflake.ID `gorm:"not null;column:addon_id" json:"addon_id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	UnitPriceCents int64        `gorm:"not null" json:"unit_price_cents"`
	Quantity       int64        `gorm:"not null;default:1" json:"quantity"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ServiceAddOn) TableName() string { return "service_addons" }

// TaxProfile holds the CFDI invoicing data a buyer may supply with an order.
type TaxProfile struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ServiceID     snowflake.ID `gorm:"not null;index:ix_tax_profiles_service" json:"service_id"`
	RFC           string       `gorm:"type:text;not null" json:"rfc"`
	Name          string       `gorm:"type:text;not null" json:"name"`
	Zip           string       `gorm:"type:text;not null" json:"zip"`
	Regimen       string       `gorm:"type:text;not null" json:"regimen"`
	UsoCFDI       string       `gorm:"type:text;not null" json:"uso_cfdi"`
	ConstanciaURL *string      `gorm:"type:text" json:"constancia_url,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TaxProfile) TableName() string { return "tax_profiles" }
