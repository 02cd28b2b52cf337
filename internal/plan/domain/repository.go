package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *Plan) error
	InsertAddOn(ctx context.Context, db *gorm.DB, addon *AddOn) error
	LinkAddOn(ctx context.Context, db *gorm.DB, planID, addonID snowflake.ID) error
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Plan, error)
	FindAddOnByCode(ctx context.Context, db *gorm.DB, code string) (*AddOn, error)
	ListActiveAddOns(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]AddOn, error)
	List(ctx context.Context, db *gorm.DB, includeInactive bool, afterID snowflake.ID, limit int) ([]*Plan, error)
}
