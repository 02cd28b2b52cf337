// Package migration brings the schema up on startup so a fresh install is
// usable out of the box. Postgres goes through versioned SQL migrations;
// other dialects (sqlite for dev and tests, mysql) fall back to AutoMigrate.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/hostbill/internal/audit/domain"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	transactiondomain "github.com/smallbiznis/hostbill/internal/transaction/domain"
	"gorm.io/gorm"
)

//go:embed migrations
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not close the migrator here; it would close the shared *sql.DB.

	return nil
}

// AutoMigrate covers the dialects golang-migrate is not wired for.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(
		&plandomain.Plan{},
		&plandomain.AddOn{},
		&plandomain.PlanAddOn{},
		&customerdomain.Customer{},
		&hostingdomain.Service{},
		&hostingdomain.ServiceAddOn{},
		&hostingdomain.TaxProfile{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&transactiondomain.Transaction{},
		&orderdomain.OrderAttempt{},
		&auditdomain.AuditLog{},
	)
}
