// Package domain contains the activity-log model and contract. Audit
// writes are best effort: callers log and continue on failure.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Action     string            `gorm:"type:text;not null;index:ix_audit_logs_action" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   *string           `gorm:"type:text" json:"target_id,omitempty"`
	IPAddress  *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

type Service interface {
	Record(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
}

var ErrInvalidAction = errors.New("invalid_action")
