package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() hostingdomain.Repository {
	return &repo{}
}

const serviceColumns = `id, customer_id, plan_id, name, domain, unit_price_cents, currency,
	 billing_cycle, status, next_due_at, gateway_intent_id, create_subscription, metadata,
	 suspended_at, canceled_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, service *hostingdomain.Service) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO services (
			id, customer_id, plan_id, name, domain, unit_price_cents, currency, billing_cycle,
			status, next_due_at, gateway_intent_id, create_subscription, metadata, suspended_at,
			canceled_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		service.ID,
		service.CustomerID,
		service.PlanID,
		service.Name,
		service.Domain,
		service.UnitPriceCents,
		service.Currency,
		service.BillingCycle,
		service.Status,
		service.NextDueAt,
		service.GatewayIntentID,
		service.CreateSubscription,
		service.Metadata,
		service.SuspendedAt,
		service.CanceledAt,
		service.CreatedAt,
		service.UpdatedAt,
	).Error
}

func (r *repo) InsertAddOns(ctx context.Context, db *gorm.DB, addons []hostingdomain.ServiceAddOn) error {
	if len(addons) == 0 {
		return nil
	}
	for _, addon := range addons {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO service_addons (
				id, service_id, addon_id, name, unit_price_cents, quantity, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			addon.ID,
			addon.ServiceID,
			addon.AddOnID,
			addon.Name,
			addon.UnitPriceCents,
			addon.Quantity,
			addon.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) InsertTaxProfile(ctx context.Context, db *gorm.DB, profile *hostingdomain.TaxProfile) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tax_profiles (
			id, service_id, rfc, name, zip, regimen, uso_cfdi, constancia_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.ServiceID,
		profile.RFC,
		profile.Name,
		profile.Zip,
		profile.Regimen,
		profile.UsoCFDI,
		profile.ConstanciaURL,
		profile.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*hostingdomain.Service, error) {
	var service hostingdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`,
		id,
	).Scan(&service).Error
	if err != nil {
		return nil, err
	}
	if service.ID == 0 {
		return nil, nil
	}
	return &service, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*hostingdomain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
	if db.Dialector.Name() != "sqlite" {
		query += ` FOR UPDATE`
	}

	var service hostingdomain.Service
	err := db.WithContext(ctx).Raw(query, id).Scan(&service).Error
	if err != nil {
		return nil, err
	}
	if service.ID == 0 {
		return nil, nil
	}
	return &service, nil
}

func (r *repo) ListAddOns(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]hostingdomain.ServiceAddOn, error) {
	var addons []hostingdomain.ServiceAddOn
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, addon_id, name, unit_price_cents, quantity, created_at
		 FROM service_addons WHERE service_id = ? ORDER BY id ASC`,
		serviceID,
	).Scan(&addons).Error
	if err != nil {
		return nil, err
	}
	return addons, nil
}

func (r *repo) FindTaxProfile(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (*hostingdomain.TaxProfile, error) {
	var profile hostingdomain.TaxProfile
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, rfc, name, zip, regimen, uso_cfdi, constancia_url, created_at
		 FROM tax_profiles WHERE service_id = ?`,
		serviceID,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, customerID snowflake.ID, status hostingdomain.ServiceStatus, afterID snowflake.ID, limit int) ([]*hostingdomain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if customerID > 0 {
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if afterID > 0 {
		query += ` AND id > ?`
		args = append(args, afterID)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	var services []*hostingdomain.Service
	err := db.WithContext(ctx).Raw(query, args...).Scan(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, service *hostingdomain.Service) error {
	return db.WithContext(ctx).Exec(
		`UPDATE services SET status = ?, suspended_at = ?, canceled_at = ?, updated_at = ?
		 WHERE id = ?`,
		service.Status,
		service.SuspendedAt,
		service.CanceledAt,
		service.UpdatedAt,
		service.ID,
	).Error
}
