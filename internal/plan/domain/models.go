// Package domain contains persistence models for the plan catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Plan is a sellable hosting plan. The monthly price is the net recurring
// amount in cents; billing-cycle multipliers are applied at order time.
type Plan struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug              string       `gorm:"type:text;not null;uniqueIndex:ux_plans_slug" json:"slug"`
	Name              string       `gorm:"type:text;not null" json:"name"`
	Description       *string      `gorm:"type:text" json:"description,omitempty"`
	MonthlyPriceCents int64        `gorm:"not null" json:"monthly_price_cents"`
	Currency          string       `gorm:"type:text;not null" json:"currency"`
	Active            bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// AddOn is an optional paid feature attachable to one or more plans.
type AddOn struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	Code              string       `gorm:"type:text;not null;uniqueIndex:ux_addons_code" json:"code"`
	Name              string       `gorm:"type:text;not null" json:"name"`
	MonthlyPriceCents int64        `gorm:"not null" json:"monthly_price_cents"`
	Active            bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (AddOn) TableName() string { return "addons" }

// PlanAddOn links a plan to the add-ons it allows.
type PlanAddOn struct {
	PlanID  snowflake.ID `gorm:"primaryKey"`
	AddOnID snowflake.ID `gorm:"primaryKey;column:addon_id"`
}

// TableName sets the database table name.
func (PlanAddOn) TableName() string { return "plan_addons" }
