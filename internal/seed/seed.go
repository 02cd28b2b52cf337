// Package seed bootstraps a starter catalog so a fresh install has
// something to sell. It never touches a non-empty catalog.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/hostbill/internal/config"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	"gorm.io/gorm"
)

type seedPlan struct {
	name         string
	monthlyCents int64
	addonCodes   []string
}

type seedAddOn struct {
	code         string
	name         string
	monthlyCents int64
}

var defaultAddOns = []seedAddOn{
	{code: "daily-backups", name: "Daily Backups", monthlyCents: 200},
	{code: "dedicated-ip", name: "Dedicated IP", monthlyCents: 300},
	{code: "priority-support", name: "Priority Support", monthlyCents: 500},
}

var defaultPlans = []seedPlan{
	{name: "Starter Hosting", monthlyCents: 999, addonCodes: []string{"daily-backups"}},
	{name: "Business Hosting", monthlyCents: 1999, addonCodes: []string{"daily-backups", "dedicated-ip"}},
	{name: "Pro Hosting", monthlyCents: 4999, addonCodes: []string{"daily-backups", "dedicated-ip", "priority-support"}},
}

func EnsureDefaultCatalog(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Raw(`SELECT COUNT(1) FROM plans`).Scan(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		addonIDs := make(map[string]snowflake.ID, len(defaultAddOns))
		for _, addon := range defaultAddOns {
			id := node.Generate()
			addonIDs[addon.code] = id
			if err := tx.WithContext(ctx).Exec(
				`INSERT INTO addons (id, code, name, monthly_price_cents, active, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, addon.code, addon.name, addon.monthlyCents, true, now, now,
			).Error; err != nil {
				return err
			}
		}

		for _, plan := range defaultPlans {
			id := node.Generate()
			record := plandomain.Plan{
				ID:                id,
				Slug:              slug.Make(plan.name),
				Name:              plan.name,
				MonthlyPriceCents: plan.monthlyCents,
				Currency:          cfg.DefaultCurrency,
				Active:            true,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := tx.WithContext(ctx).Exec(
				`INSERT INTO plans (id, slug, name, description, monthly_price_cents, currency, active, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				record.ID, record.Slug, record.Name, record.Description,
				record.MonthlyPriceCents, record.Currency, record.Active,
				record.CreatedAt, record.UpdatedAt,
			).Error; err != nil {
				return err
			}
			for _, code := range plan.addonCodes {
				if err := tx.WithContext(ctx).Exec(
					`INSERT INTO plan_addons (plan_id, addon_id) VALUES (?, ?)`,
					id, addonIDs[code],
				).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
