package repository

import (
	"context"

	transactiondomain "github.com/smallbiznis/hostbill/internal/transaction/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() transactiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, transaction *transactiondomain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (
			id, customer_id, invoice_id, gateway_intent_id, payment_method_id,
			amount_cents, currency, status, card_metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		transaction.ID,
		transaction.CustomerID,
		transaction.InvoiceID,
		transaction.GatewayIntentID,
		transaction.PaymentMethodID,
		transaction.AmountCents,
		transaction.Currency,
		transaction.Status,
		transaction.CardMetadata,
		transaction.CreatedAt,
	).Error
}

func (r *repo) FindByIntentID(ctx context.Context, db *gorm.DB, intentID string) (*transactiondomain.Transaction, error) {
	var transaction transactiondomain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, invoice_id, gateway_intent_id, payment_method_id,
		 amount_cents, currency, status, card_metadata, created_at
		 FROM transactions WHERE gateway_intent_id = ?`,
		intentID,
	).Scan(&transaction).Error
	if err != nil {
		return nil, err
	}
	if transaction.ID == 0 {
		return nil, nil
	}
	return &transaction, nil
}
