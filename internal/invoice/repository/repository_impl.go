package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

const invoiceColumns = `id, number, customer_id, service_id, status, subtotal_cents, tax_rate_bps,
	 tax_cents, total_cents, currency, gateway_intent_id, paid_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, number, customer_id, service_id, status, subtotal_cents, tax_rate_bps,
			tax_cents, total_cents, currency, gateway_intent_id, paid_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.Number,
		invoice.CustomerID,
		invoice.ServiceID,
		invoice.Status,
		invoice.SubtotalCents,
		invoice.TaxRateBps,
		invoice.TaxCents,
		invoice.TotalCents,
		invoice.Currency,
		invoice.GatewayIntentID,
		invoice.PaidAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []invoicedomain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO invoice_items (
				id, invoice_id, kind, description, quantity, unit_cents, amount_cents, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.InvoiceID,
			item.Kind,
			item.Description,
			item.Quantity,
			item.UnitCents,
			item.AmountCents,
			item.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]invoicedomain.InvoiceItem, error) {
	var items []invoicedomain.InvoiceItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, invoice_id, kind, description, quantity, unit_cents, amount_cents, created_at
		 FROM invoice_items WHERE invoice_id = ? ORDER BY id ASC`,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, customerID snowflake.ID, afterID snowflake.ID, limit int) ([]*invoicedomain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if customerID > 0 {
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}
	if afterID > 0 {
		query += ` AND id > ?`
		args = append(args, afterID)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	var invoices []*invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(query, args...).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
