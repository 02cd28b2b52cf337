package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() customerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *customerdomain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (
			id, email, name, gateway_customer_id, default_payment_method_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		customer.ID,
		customer.Email,
		customer.Name,
		customer.GatewayCustomerID,
		customer.DefaultPaymentMethodID,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, gateway_customer_id, default_payment_method_id, created_at, updated_at
		 FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, gateway_customer_id, default_payment_method_id, created_at, updated_at
		 FROM customers WHERE email = ?`,
		email,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) UpdateGatewayCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, gatewayCustomerID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET gateway_customer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		gatewayCustomerID,
		id,
	).Error
}

func (r *repo) UpdateDefaultPaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentMethodID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET default_payment_method_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		paymentMethodID,
		id,
	).Error
}
