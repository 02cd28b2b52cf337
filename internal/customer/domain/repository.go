package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Customer, error)
	UpdateGatewayCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, gatewayCustomerID string) error
	UpdateDefaultPaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentMethodID string) error
}
