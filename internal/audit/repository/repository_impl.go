package repository

import (
	"context"

	auditdomain "github.com/smallbiznis/hostbill/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() auditdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (
			id, action, target_type, target_id, ip_address, user_agent, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.IPAddress,
		entry.UserAgent,
		entry.Metadata,
		entry.CreatedAt,
	).Error
}
