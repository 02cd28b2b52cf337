package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() plandomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *plandomain.Plan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO plans (
			id, slug, name, description, monthly_price_cents, currency, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Slug,
		plan.Name,
		plan.Description,
		plan.MonthlyPriceCents,
		plan.Currency,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repo) InsertAddOn(ctx context.Context, db *gorm.DB, addon *plandomain.AddOn) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO addons (
			id, code, name, monthly_price_cents, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		addon.ID,
		addon.Code,
		addon.Name,
		addon.MonthlyPriceCents,
		addon.Active,
		addon.CreatedAt,
		addon.UpdatedAt,
	).Error
}

func (r *repo) LinkAddOn(ctx context.Context, db *gorm.DB, planID, addonID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO plan_addons (plan_id, addon_id) VALUES (?, ?)`,
		planID,
		addonID,
	).Error
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*plandomain.Plan, error) {
	var plan plandomain.Plan
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name, description, monthly_price_cents, currency, active, created_at, updated_at
		 FROM plans WHERE slug = ?`,
		slug,
	).Scan(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) FindAddOnByCode(ctx context.Context, db *gorm.DB, code string) (*plandomain.AddOn, error) {
	var addon plandomain.AddOn
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, monthly_price_cents, active, created_at, updated_at
		 FROM addons WHERE code = ?`,
		code,
	).Scan(&addon).Error
	if err != nil {
		return nil, err
	}
	if addon.ID == 0 {
		return nil, nil
	}
	return &addon, nil
}

func (r *repo) ListActiveAddOns(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]plandomain.AddOn, error) {
	var addons []plandomain.AddOn
	err := db.WithContext(ctx).Raw(
		`SELECT a.id, a.code, a.name, a.monthly_price_cents, a.active, a.created_at, a.updated_at
		 FROM addons a
		 JOIN plan_addons pa ON pa.addon_id = a.id
		 WHERE pa.plan_id = ? AND a.active = ?
		 ORDER BY a.code ASC`,
		planID,
		true,
	).Scan(&addons).Error
	if err != nil {
		return nil, err
	}
	return addons, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, includeInactive bool, afterID snowflake.ID, limit int) ([]*plandomain.Plan, error) {
	query := `SELECT id, slug, name, description, monthly_price_cents, currency, active, created_at, updated_at
	 FROM plans WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if !includeInactive {
		query += ` AND active = ?`
		args = append(args, true)
	}
	if afterID > 0 {
		query += ` AND id > ?`
		args = append(args, afterID)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	var plans []*plandomain.Plan
	err := db.WithContext(ctx).Raw(query, args...).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}
