package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, service *Service) error
	InsertAddOns(ctx context.Context, db *gorm.DB, addons []ServiceAddOn) error
	InsertTaxProfile(ctx context.Context, db *gorm.DB, profile *TaxProfile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
	ListAddOns(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]ServiceAddOn, error)
	FindTaxProfile(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (*TaxProfile, error)
	List(ctx context.Context, db *gorm.DB, customerID snowflake.ID, status ServiceStatus, afterID snowflake.ID, limit int) ([]*Service, error)
	UpdateLifecycle(ctx context.Context, db *gorm.DB, service *Service) error
}
