package repository

import (
	"context"

	"gorm.io/gorm"

	"afyalink/backend/internal/model"
)

// HospitalRepository 医院数据访问接口
type HospitalRepository interface {
	GetByID(ctx context.Context, id string) (*model.Hospital, error)
	List(ctx context.Context) ([]model.Hospital, error)
}

type hospitalRepo struct {
	db *gorm.DB
}

// NewHospitalRepo 创建 HospitalRepository 实例
func NewHospitalRepo(db *gorm.DB) HospitalRepository {
	return &hospitalRepo{db: db}
}

func (r *hospitalRepo) GetByID(ctx context.Context, id string) (*model.Hospital, error) {
	var h model.Hospital
	err := r.db.WithContext(ctx).
		Where("hospital_id = ?", id).
		First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hospitalRepo) List(ctx context.Context) ([]model.Hospital, error) {
	var hs []model.Hospital
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&hs).Error
	if err != nil {
		return nil, err
	}
	return hs, nil
}
