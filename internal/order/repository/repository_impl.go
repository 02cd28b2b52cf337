package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
	"gorm.io/gorm"
)

type attemptRepo struct{}

func Provide() orderdomain.AttemptRepository {
	return &attemptRepo{}
}

func (r *attemptRepo) Insert(ctx context.Context, db *gorm.DB, attempt *orderdomain.OrderAttempt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_attempts (
			id, customer_id, plan_id, amount_cents, currency, gateway_intent_id,
			status, failure_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID,
		attempt.CustomerID,
		attempt.PlanID,
		attempt.AmountCents,
		attempt.Currency,
		attempt.GatewayIntentID,
		attempt.Status,
		attempt.FailureReason,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	).Error
}

func (r *attemptRepo) Update(ctx context.Context, db *gorm.DB, attempt *orderdomain.OrderAttempt) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_attempts SET gateway_intent_id = ?, status = ?, failure_reason = ?, updated_at = ?
		 WHERE id = ?`,
		attempt.GatewayIntentID,
		attempt.Status,
		attempt.FailureReason,
		attempt.UpdatedAt,
		attempt.ID,
	).Error
}

func (r *attemptRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orderdomain.OrderAttempt, error) {
	var attempt orderdomain.OrderAttempt
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, plan_id, amount_cents, currency, gateway_intent_id,
		 status, failure_reason, created_at, updated_at
		 FROM order_attempts WHERE id = ?`,
		id,
	).Scan(&attempt).Error
	if err != nil {
		return nil, err
	}
	if attempt.ID == 0 {
		return nil, nil
	}
	return &attempt, nil
}
