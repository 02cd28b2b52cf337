package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	InsertItems(ctx context.Context, db *gorm.DB, items []InvoiceItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]InvoiceItem, error)
	List(ctx context.Context, db *gorm.DB, customerID snowflake.ID, afterID snowflake.ID, limit int) ([]*Invoice, error)
}
